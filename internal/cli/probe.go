package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/screen"
)

func newProbeCmd(a *app) *cobra.Command {
	var tryCapture bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report which capture backend and OCR engine would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := newStack(a.cfg)
			defer rt.cleanup()
			out := cmd.OutOrStdout()

			if b, ok := screen.Guess(screen.ProbeEnv{}); ok {
				fmt.Fprintf(out, "backend guess: %s\n", b)
			} else {
				fmt.Fprintln(out, "backend guess: none (default order)")
			}
			printOrder(out, rt.capturer.Order())

			st := rt.orch.Status()
			if st.EngineReady {
				fmt.Fprintf(out, "ocr engine:    %s (ready)\n", st.Engine)
			} else {
				fmt.Fprintf(out, "ocr engine:    %s (unavailable: %s)\n", st.Engine, st.EngineError)
			}

			if !tryCapture {
				return nil
			}
			c, err := rt.orch.CaptureScreen(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "capture:       failed: %s\n", apperr.UserMessage(err))
				return err
			}
			fmt.Fprintf(out, "capture:       ok via %s\n", c.Backend)
			return nil
		},
	}
	cmd.Flags().BoolVar(&tryCapture, "capture", false, "also attempt a capture")
	return cmd
}

func printOrder(out io.Writer, order []screen.Backend) {
	fmt.Fprint(out, "capture order:")
	for _, b := range order {
		fmt.Fprintf(out, " %s", b)
	}
	fmt.Fprintln(out)
}
