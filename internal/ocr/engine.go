package ocr

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Engine recognizes text in a PNG-encoded, preprocessed image.
type Engine interface {
	Name() string
	// Available reports why the engine cannot run, or nil.
	Available() error
	// Recognize returns the raw engine text. Errors carry the engine's own
	// message so language-data failures can be recognized.
	Recognize(ctx context.Context, png []byte) (string, error)
}

// CommandEngine runs the tesseract executable, feeding the image on stdin.
type CommandEngine struct {
	path     string
	cfg      Config
	lookPath func(string) (string, error)
}

// NewCommandEngine creates an engine for the tesseract binary at path (a
// bare name is resolved through PATH).
func NewCommandEngine(path string, cfg Config) *CommandEngine {
	return &CommandEngine{path: path, cfg: cfg, lookPath: exec.LookPath}
}

func (e *CommandEngine) Name() string { return "tesseract-cli" }

func (e *CommandEngine) Available() error {
	_, err := e.lookPath(e.path)
	return err
}

func (e *CommandEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	args := append([]string{"stdin", "stdout"}, e.cfg.Args()...)
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.New(msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
