// Package tesseract implements ocr.Engine on top of libtesseract through
// gosseract, avoiding a process spawn per recognition.
package tesseract

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/GriffinCanCode/prinsp/internal/ocr"
)

// Engine runs recognitions on a fresh gosseract client each time. All
// variables go through a tesseract config file written once: the dictionary
// switches are init-only and SetVariable rejects them after init.
type Engine struct {
	cfg           ocr.Config
	tempDir       string
	clientFactory func() *gosseract.Client

	once       sync.Once
	configFile string
	prepErr    error
}

// New creates an engine. tempDir holds the generated config file; empty
// means os.TempDir.
func New(cfg ocr.Config, tempDir string) *Engine {
	return &Engine{cfg: cfg, tempDir: tempDir, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract-library" }

// Available writes the config file on first use and reports whether that
// succeeded. Missing language data only surfaces at Recognize.
func (e *Engine) Available() error {
	return e.prepare()
}

func (e *Engine) prepare() error {
	e.once.Do(func() {
		f, err := os.CreateTemp(e.tempDir, "prinsp-tesseract-*.cfg")
		if err != nil {
			e.prepErr = fmt.Errorf("create tesseract config: %w", err)
			return
		}
		defer f.Close()
		if _, err := f.WriteString(e.cfg.ConfigFile()); err != nil {
			e.prepErr = fmt.Errorf("write tesseract config: %w", err)
			return
		}
		e.configFile = f.Name()
	})
	return e.prepErr
}

func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := e.prepare(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetConfigFile(e.configFile); err != nil {
		return "", fmt.Errorf("set config file: %w", err)
	}
	if err := c.SetLanguage(e.cfg.Languages()...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode())); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	// init errors carry tesseract's own stderr, e.g. "Failed loading language"
	text, err := c.Text()
	if err != nil {
		return "", err
	}
	return text, nil
}

// Close removes the generated config file.
func (e *Engine) Close() error {
	if e.configFile == "" {
		return nil
	}
	return os.Remove(e.configFile)
}
