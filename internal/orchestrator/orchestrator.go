package orchestrator

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/screen"
	"github.com/GriffinCanCode/prinsp/internal/trace"
)

// Capturer grabs the screen as PNG.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, screen.Backend, error)
	Preferred() (screen.Backend, bool)
}

// Recognizer turns an encoded image into normalized text. OCRImage calls
// Available once, before RecognizeEncoded.
type Recognizer interface {
	EngineName() string
	Available() error
	RecognizeEncoded(ctx context.Context, data []byte) (string, error)
}

// Capture is a screenshot ready for the UI shell.
type Capture struct {
	Image   string `json:"image"` // base64 PNG
	Backend string `json:"backend"`
	Changed bool   `json:"changed"`
}

// Status summarizes what the service can currently do.
type Status struct {
	Backend     string `json:"backend,omitempty"`
	Engine      string `json:"engine"`
	EngineReady bool   `json:"engine_ready"`
	EngineError string `json:"engine_error,omitempty"`
}

// Options tunes an Orchestrator.
type Options struct {
	// HideDelay between hiding the window and capturing; zero means
	// DefaultHideDelay.
	HideDelay time.Duration
}

// Orchestrator wires capture and OCR behind the boundary operations.
type Orchestrator struct {
	capturer   Capturer
	recognizer Recognizer
	hideDelay  time.Duration
	changes    *ChangeDetector
}

// New creates an orchestrator.
func New(capturer Capturer, recognizer Recognizer, opts Options) *Orchestrator {
	delay := opts.HideDelay
	if delay <= 0 {
		delay = DefaultHideDelay
	}
	return &Orchestrator{
		capturer:   capturer,
		recognizer: recognizer,
		hideDelay:  delay,
		changes:    NewChangeDetector(MaxHashDistance),
	}
}

// CaptureScreen grabs the screen and returns it base64 encoded.
func (o *Orchestrator) CaptureScreen(ctx context.Context) (Capture, error) {
	ctx, span := trace.StartSpan(ctx, "capture_screen")

	data, backend, err := o.capturer.Capture(ctx)
	if err != nil {
		span.End(err)
		return Capture{}, err
	}

	c := Capture{
		Image:   base64.StdEncoding.EncodeToString(data),
		Backend: backend.String(),
		Changed: o.changes.Observe(data),
	}
	span.SetAttr("backend", c.Backend)
	span.SetAttr("bytes", len(data))
	span.End(nil)
	return c, nil
}

// CaptureScreenAfterHide runs hide, waits for the window to disappear and
// captures. hide may be nil when the caller already hid its window.
func (o *Orchestrator) CaptureScreenAfterHide(ctx context.Context, hide func() error) (Capture, error) {
	if hide != nil {
		if err := hide(); err != nil {
			return Capture{}, apperr.Wrap(err, apperr.CodeInternal, "hide window")
		}
	}

	timer := time.NewTimer(o.hideDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Capture{}, apperr.Wrap(ctx.Err(), apperr.CodeTimeout, "capture cancelled")
	case <-timer.C:
	}

	return o.CaptureScreen(ctx)
}

// OCRImage recognizes text in a base64 encoded image.
func (o *Orchestrator) OCRImage(ctx context.Context, b64 string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "ocr_image")
	span.SetAttr("engine", o.recognizer.EngineName())

	text, err := o.ocr(ctx, b64)
	if err == nil {
		span.SetAttr("chars", len(text))
	}
	span.End(err)
	return text, err
}

func (o *Orchestrator) ocr(ctx context.Context, b64 string) (string, error) {
	// the only engine check on this path
	if err := o.recognizer.Available(); err != nil {
		return "", err
	}

	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return "", apperr.New(apperr.CodeImageDecode, "no image data")
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeImageDecode, "decode base64 image")
	}
	return o.recognizer.RecognizeEncoded(ctx, data)
}

// PreferredBackend names the backend the next capture tries first.
func (o *Orchestrator) PreferredBackend() (string, bool) {
	b, ok := o.capturer.Preferred()
	if !ok {
		return "", false
	}
	return b.String(), true
}

// Status reports the preferred backend and whether the OCR engine can run.
func (o *Orchestrator) Status() Status {
	s := Status{Engine: o.recognizer.EngineName(), EngineReady: true}
	s.Backend, _ = o.PreferredBackend()
	if err := o.recognizer.Available(); err != nil {
		s.EngineReady = false
		s.EngineError = apperr.UserMessage(err)
	}
	return s
}
