package screen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
)

// GnomeStrategy runs `gnome-screenshot -f <file>` and reads the file back.
// Each call writes to its own temp file so concurrent captures never share a
// path.
type GnomeStrategy struct {
	path     string
	tempDir  string
	attempts int
	interval time.Duration
}

// NewGnomeStrategy creates a gnome-screenshot backend. An empty tempDir means
// os.TempDir().
func NewGnomeStrategy(path, tempDir string) *GnomeStrategy {
	return &GnomeStrategy{
		path:     path,
		tempDir:  tempDir,
		attempts: GnomePollAttempts,
		interval: GnomePollInterval,
	}
}

func (g *GnomeStrategy) Backend() Backend { return GnomeScreenshot }

// Capture polls the process for completion up to attempts*interval. A process
// still running after that is killed and the file is read anyway; a missing
// file then surfaces as the error.
func (g *GnomeStrategy) Capture(ctx context.Context) ([]byte, error) {
	dir := g.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	tmpFile := filepath.Join(dir, fmt.Sprintf("prinsp-%d-%s.png", os.Getpid(), uuid.NewString()))
	defer os.Remove(tmpFile)

	cmd := exec.Command(g.path, "-f", tmpFile)
	if err := cmd.Start(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUnavailable, "gnome-screenshot")
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if err := g.wait(ctx, cmd, done); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUnavailable, "read screenshot file")
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.CodeUnavailable, "gnome-screenshot wrote an empty file")
	}
	return data, nil
}

func (g *GnomeStrategy) wait(ctx context.Context, cmd *exec.Cmd, done <-chan error) error {
	for i := 0; i < g.attempts; i++ {
		select {
		case err := <-done:
			if err != nil {
				return apperr.Wrap(err, apperr.CodeUnavailable, "gnome-screenshot failed")
			}
			return nil
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			return ctx.Err()
		case <-time.After(g.interval):
		}
	}

	slog.Debug("gnome-screenshot still running after polling, killing", "waited", time.Duration(g.attempts)*g.interval)
	_ = cmd.Process.Kill()
	return nil
}
