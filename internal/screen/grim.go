package screen

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
)

// GrimStrategy captures via `grim -`, which writes a PNG to stdout.
type GrimStrategy struct {
	path string
}

// NewGrimStrategy creates a grim backend running the given executable.
func NewGrimStrategy(path string) *GrimStrategy {
	return &GrimStrategy{path: path}
}

func (g *GrimStrategy) Backend() Backend { return Grim }

// Capture runs grim; the process is killed when ctx is done.
func (g *GrimStrategy) Capture(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := "grim failed"
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg += ": " + s
		}
		return nil, apperr.Wrap(err, apperr.CodeUnavailable, msg)
	}
	if stdout.Len() == 0 {
		return nil, apperr.New(apperr.CodeUnavailable, "grim produced no image")
	}
	return stdout.Bytes(), nil
}
