// Package orchestrator exposes the boundary operations the UI shell and the
// transport layers call: capture, capture-after-hide and OCR.
package orchestrator

import "time"

const (
	// DefaultHideDelay lets the window manager finish hiding the caller's
	// window before the screen is grabbed.
	DefaultHideDelay = 200 * time.Millisecond

	// MaxHashDistance is the pHash Hamming distance at or below which two
	// captures count as the same screen.
	MaxHashDistance = 5

	// HashSampleSize bounds the longer side of the copy a capture is hashed
	// from.
	HashSampleSize = 256
)
