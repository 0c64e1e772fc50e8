package screen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
)

// ErrNoDisplay is returned when no monitor can be enumerated.
var ErrNoDisplay = errors.New("no monitor found")

// DisplayStrategy grabs the first active monitor with kbinani/screenshot and
// re-encodes it as PNG in memory. The library call cannot be interrupted, so
// ctx is only checked before it starts.
type DisplayStrategy struct {
	numDisplays   func() int
	captureScreen func(int) (*image.RGBA, error)
}

// NewDisplayStrategy creates a library-backed capture strategy.
func NewDisplayStrategy() *DisplayStrategy {
	return &DisplayStrategy{
		numDisplays:   screenshot.NumActiveDisplays,
		captureScreen: screenshot.CaptureDisplay,
	}
}

func (d *DisplayStrategy) Backend() Backend { return Display }

func (d *DisplayStrategy) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.numDisplays() == 0 {
		return nil, apperr.Wrap(ErrNoDisplay, apperr.CodeUnavailable, "display capture")
	}

	img, err := d.captureScreen(0)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUnavailable, "display capture")
	}
	if img == nil || img.Bounds().Empty() {
		return nil, apperr.New(apperr.CodeUnavailable, "display capture returned an empty frame")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeImageEncode, "encode screenshot")
	}
	return buf.Bytes(), nil
}
