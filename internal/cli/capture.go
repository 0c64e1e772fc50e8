package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/orchestrator"
)

type captureOptions struct {
	output string
	hidden bool
	remote string
}

func newCaptureCmd(a *app) *cobra.Command {
	var opts captureOptions
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture the screen",
		Long: `Capture the screen as PNG. Without -o the image is printed to stdout
as base64. --hidden waits for the terminal's window to be hidden first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.capture(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if opts.output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), c.Image)
				return err
			}
			data, err := base64.StdEncoding.DecodeString(c.Image)
			if err != nil {
				return apperr.Wrap(err, apperr.CodeImageDecode, "decode capture")
			}
			if err := os.WriteFile(opts.output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", opts.output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "saved %s (%s, %d bytes)\n", opts.output, c.Backend, len(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the PNG to this file")
	cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "wait for the hide delay before capturing")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "gRPC address of a running prinsp server")
	return cmd
}

func (a *app) capture(ctx context.Context, opts captureOptions) (orchestrator.Capture, error) {
	if opts.remote != "" {
		client, err := dialRemote(ctx, opts.remote)
		if err != nil {
			return orchestrator.Capture{}, err
		}
		defer client.Close()

		if opts.hidden {
			if err := sleepCtx(ctx, a.cfg.HideDelay); err != nil {
				return orchestrator.Capture{}, err
			}
		}
		return client.CaptureScreen(ctx)
	}

	rt := newStack(a.cfg)
	defer rt.cleanup()
	if opts.hidden {
		return rt.orch.CaptureScreenAfterHide(ctx, nil)
	}
	return rt.orch.CaptureScreen(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
