// Package server exposes the boundary operations over HTTP and WebSocket.
package server

import "time"

const (
	// Per-connection WebSocket rate limit (sliding window).
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// MaxImageBytes bounds OCR request bodies and WebSocket messages; a base64
	// 4K screenshot fits comfortably.
	MaxImageBytes = 32 << 20

	// WriteTimeout for a single WebSocket reply.
	WriteTimeout = 10 * time.Second
)

// WebSocket message types.
const (
	TypeCapture       = "capture"
	TypeOCR           = "ocr"
	TypeCaptureResult = "capture_result"
	TypeOCRResult     = "ocr_result"
	TypeError         = "error"
)
