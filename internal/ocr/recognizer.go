package ocr

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"log/slog"
	"time"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/preprocess"
	"github.com/GriffinCanCode/prinsp/internal/textnorm"
)

// Recognizer runs preprocessing, the engine and text normalization. It does
// not check the engine on every call; callers gate on Available once.
type Recognizer struct {
	engine Engine
}

// NewRecognizer creates a recognizer around engine.
func NewRecognizer(engine Engine) *Recognizer {
	return &Recognizer{engine: engine}
}

// EngineName names the underlying engine.
func (r *Recognizer) EngineName() string { return r.engine.Name() }

// Available returns an OCREngineMissing error carrying InstallHint when the
// engine cannot run.
func (r *Recognizer) Available() error {
	if err := r.engine.Available(); err != nil {
		slog.Debug("ocr engine unavailable", "engine", r.engine.Name(), "error", err)
		return apperr.New(apperr.CodeOCREngineMissing, InstallHint).WithMetadata("engine", r.engine.Name())
	}
	return nil
}

// RecognizeEncoded decodes data (PNG, JPEG, GIF, BMP, TIFF or WebP) and
// recognizes it.
func (r *Recognizer) RecognizeEncoded(ctx context.Context, data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeImageDecode, "decode image")
	}
	slog.Debug("decoded image for ocr", "format", format, "bounds", img.Bounds())
	return r.Recognize(ctx, img)
}

// Recognize preprocesses img and returns the normalized text.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if img.Bounds().Empty() {
		return "", apperr.New(apperr.CodeImageDecode, "image is empty")
	}

	start := time.Now()
	processed := preprocess.ForOCR(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return "", apperr.Wrap(err, apperr.CodeImageEncode, "encode preprocessed image")
	}

	raw, err := r.engine.Recognize(ctx, buf.Bytes())
	if err != nil {
		return "", classifyEngineError(r.engine.Name(), err)
	}

	text := textnorm.Normalize(raw)
	slog.Debug("ocr complete", "engine", r.engine.Name(), "chars", len(text), "elapsed", time.Since(start))
	return text, nil
}
