package server

import "github.com/GriffinCanCode/prinsp/internal/orchestrator"

// Request is any client WebSocket message.
type Request struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Hidden  bool   `json:"hidden,omitempty"`
	Image   string `json:"image,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type CaptureResult struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	orchestrator.Capture
}

type OCRResult struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OCRRequest is the body of POST /api/ocr.
type OCRRequest struct {
	Image string `json:"image"`
}

type OCRResponse struct {
	Text string `json:"text"`
}

type BackendResponse struct {
	Backend string `json:"backend,omitempty"`
	Known   bool   `json:"known"`
}
