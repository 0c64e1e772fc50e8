package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/prinsp/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve capture and OCR over HTTP, WebSocket and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	rt := newStack(a.cfg)
	defer rt.cleanup()

	st := rt.orch.Status()
	if !st.EngineReady {
		slog.Warn("ocr engine unavailable, OCR requests will fail until it is installed", "engine", st.Engine, "hint", st.EngineError)
	}

	srv := server.New(rt.orch)
	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	grpcServer := newRPCServer(rt.orch, st)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		slog.Info("grpc server starting", "addr", a.cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case runErr = <-errCh:
		slog.Error("server failed, shutting down", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	srv.CloseAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.Stop()

	slog.Info("shutdown complete")
	return runErr
}
