// Package cli implements the prinsp command line.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/prinsp/internal/config"
)

// app carries state shared by subcommands once the root has run.
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
}

// Execute runs the command line with ctx cancelled on shutdown signals.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the prinsp command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "prinsp",
		Short: "Screen capture and OCR for mixed Chinese/Latin text",
		Long: `prinsp captures the screen through whichever backend works on this
desktop (grim, the X11/Windows/macOS display API, or gnome-screenshot) and
reads short lines of Chinese and Latin text from images with Tesseract.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./prinsp.yaml or $HOME/.config/prinsp/prinsp.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newCaptureCmd(a),
		newOCRCmd(a),
		newProbeCmd(a),
	)
	return root
}

// setup loads configuration and installs the default logger.
func (a *app) setup(logOut io.Writer) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))
	a.cfg = cfg
	return nil
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
