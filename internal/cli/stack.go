package cli

import (
	"context"

	"github.com/GriffinCanCode/prinsp/internal/config"
	"github.com/GriffinCanCode/prinsp/internal/grpcclient"
	"github.com/GriffinCanCode/prinsp/internal/ocr"
	"github.com/GriffinCanCode/prinsp/internal/ocr/tesseract"
	"github.com/GriffinCanCode/prinsp/internal/orchestrator"
	"github.com/GriffinCanCode/prinsp/internal/rpc"
	"github.com/GriffinCanCode/prinsp/internal/screen"
)

// stack wires the local capturer, OCR engine and orchestrator.
type stack struct {
	capturer *screen.Capturer
	engine   ocr.Engine
	orch     *orchestrator.Orchestrator
	cleanup  func()
}

// newEngine picks the OCR engine named by cfg.
func newEngine(cfg *config.Config) (ocr.Engine, func()) {
	if cfg.OCREngine == config.EngineLibrary {
		e := tesseract.New(ocr.DefaultConfig(), cfg.TempDir)
		return e, func() { _ = e.Close() }
	}
	return ocr.NewCommandEngine(cfg.TesseractPath, ocr.DefaultConfig()), func() {}
}

func newStack(cfg *config.Config) *stack {
	capturer := screen.New(screen.Options{TempDir: cfg.TempDir})
	if cfg.Probe {
		capturer.Preselect(screen.ProbeEnv{})
	}
	engine, cleanup := newEngine(cfg)

	return &stack{
		capturer: capturer,
		engine:   engine,
		orch: orchestrator.New(capturer, ocr.NewRecognizer(engine), orchestrator.Options{
			HideDelay: cfg.HideDelay,
		}),
		cleanup: cleanup,
	}
}

// newRPCServer serves ops over gRPC. The ScreenText health status follows the
// engine readiness in st, matching /healthz.
func newRPCServer(ops rpc.Operations, st orchestrator.Status) *rpc.Server {
	srv := rpc.NewServer(ops)
	srv.SetServing(st.EngineReady)
	return srv
}

// dialRemote connects to a prinsp server and fails early if it does not
// answer its health service.
func dialRemote(ctx context.Context, addr string) (*grpcclient.Client, error) {
	client, err := grpcclient.New(addr)
	if err != nil {
		return nil, err
	}
	if err := client.Healthy(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
