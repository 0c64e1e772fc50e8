package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/orchestrator"
	"github.com/GriffinCanCode/prinsp/internal/trace"
)

// mockService for testing.
type mockService struct {
	mu         sync.Mutex
	capture    orchestrator.Capture
	captureErr error
	hiddenCall int
	text       string
	ocrErr     error
	ocrInput   string
	backend    string
	status     orchestrator.Status
}

func newMockService() *mockService {
	return &mockService{
		capture: orchestrator.Capture{Image: "aGVsbG8=", Backend: "grim", Changed: true},
		text:    "你好 world",
		backend: "grim",
		status:  orchestrator.Status{Backend: "grim", Engine: "tesseract-cli", EngineReady: true},
	}
}

func (m *mockService) CaptureScreen(context.Context) (orchestrator.Capture, error) {
	return m.capture, m.captureErr
}

func (m *mockService) CaptureScreenAfterHide(ctx context.Context, hide func() error) (orchestrator.Capture, error) {
	m.mu.Lock()
	m.hiddenCall++
	m.mu.Unlock()
	return m.CaptureScreen(ctx)
}

func (m *mockService) hiddenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hiddenCall
}

func (m *mockService) OCRImage(_ context.Context, b64 string) (string, error) {
	m.mu.Lock()
	m.ocrInput = b64
	m.mu.Unlock()
	return m.text, m.ocrErr
}

func (m *mockService) PreferredBackend() (string, bool) { return m.backend, m.backend != "" }
func (m *mockService) Status() orchestrator.Status      { return m.status }

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/ocr", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want %d", rec.Code, http.StatusOK)
	}
	if v := rec.Header().Get("Access-Control-Allow-Methods"); v != "GET, POST, OPTIONS" {
		t.Errorf("CORS methods = %q", v)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/capture", http.NoBody))
	if rec.Code != http.StatusTeapot {
		t.Errorf("GET should reach the handler, status = %d", rec.Code)
	}
	if v := rec.Header().Get("Access-Control-Allow-Origin"); v != "*" {
		t.Errorf("CORS origin on GET = %q, want %q", v, "*")
	}
}

func TestHandleCapture(t *testing.T) {
	svc := newMockService()
	rec := httptest.NewRecorder()
	New(svc).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/capture", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var got orchestrator.Capture
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != svc.capture {
		t.Errorf("body = %+v, want %+v", got, svc.capture)
	}
	if rec.Header().Get(trace.TraceIDKey) == "" {
		t.Error("response should carry a trace id")
	}
}

func TestHandleCaptureHidden(t *testing.T) {
	svc := newMockService()
	rec := httptest.NewRecorder()
	New(svc).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/capture/hidden", http.NoBody))

	if rec.Code != http.StatusOK || svc.hiddenCall != 1 {
		t.Errorf("status = %d, hidden calls = %d", rec.Code, svc.hiddenCall)
	}
}

func TestHandleCaptureMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New(newMockService()).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/capture", http.NoBody))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"capture failed", apperr.New(apperr.CodeCaptureFailed, "screen capture failed"), http.StatusServiceUnavailable, "CAPTURE_FAILED"},
		{"timeout", apperr.New(apperr.CodeTimeout, "too slow"), http.StatusGatewayTimeout, "TIMEOUT"},
		{"decode", apperr.New(apperr.CodeImageDecode, "bad image"), http.StatusBadRequest, "IMAGE_DECODE"},
		{"engine missing", apperr.New(apperr.CodeOCREngineMissing, "install"), http.StatusServiceUnavailable, "OCR_ENGINE_MISSING"},
		{"plain", context.Canceled, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockService()
			svc.captureErr = tt.err
			rec := httptest.NewRecorder()
			New(svc).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/capture", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorMessage
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.wantCode || body.Message != apperr.UserMessage(tt.err) {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestHandleOCR(t *testing.T) {
	svc := newMockService()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader(`{"image":"aW1n"}`))
	New(svc).Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var got OCRResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "你好 world" || svc.ocrInput != "aW1n" {
		t.Errorf("text = %q, input = %q", got.Text, svc.ocrInput)
	}
}

func TestHandleOCRBadBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader(`{"image":`))
	New(newMockService()).Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBackendAndHealth(t *testing.T) {
	svc := newMockService()
	svc.backend = ""
	svc.status.EngineReady = false
	h := New(svc).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/backend", http.NoBody))
	var backend BackendResponse
	if err := json.NewDecoder(rec.Body).Decode(&backend); err != nil {
		t.Fatal(err)
	}
	if backend.Known || backend.Backend != "" {
		t.Errorf("backend = %+v, want unknown", backend)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz status = %d, want 503 without an engine", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := &rateLimiter{limit: 3, window: 50 * time.Millisecond}
	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("message %d should be allowed", i)
		}
	}
	if rl.allow() {
		t.Error("fourth message in the window should be rejected")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.allow() {
		t.Error("messages should be allowed again after the window")
	}
}

func dialWS(t *testing.T, svc Service) (*websocket.Conn, context.Context) {
	t.Helper()
	ts := httptest.NewServer(New(svc).Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.SetReadLimit(MaxImageBytes)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func roundTrip(t *testing.T, ctx context.Context, conn *websocket.Conn, req Request) map[string]any {
	t.Helper()
	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.Fatal(err)
	}
	var reply map[string]any
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatal(err)
	}
	return reply
}

func TestWebSocketCapture(t *testing.T) {
	svc := newMockService()
	conn, ctx := dialWS(t, svc)

	reply := roundTrip(t, ctx, conn, Request{Type: TypeCapture, ID: "req-1"})
	if reply["type"] != TypeCaptureResult || reply["id"] != "req-1" {
		t.Errorf("reply = %v", reply)
	}
	if reply["image"] != "aGVsbG8=" || reply["backend"] != "grim" || reply["changed"] != true {
		t.Errorf("reply = %v, want the capture fields inline", reply)
	}

	reply = roundTrip(t, ctx, conn, Request{Type: TypeCapture, Hidden: true})
	if reply["type"] != TypeCaptureResult || svc.hiddenCalls() != 1 {
		t.Errorf("hidden capture reply = %v, hidden calls = %d", reply, svc.hiddenCalls())
	}
	if id, _ := reply["id"].(string); id == "" {
		t.Error("server should assign an id when the client sends none")
	}
}

func TestWebSocketOCR(t *testing.T) {
	conn, ctx := dialWS(t, newMockService())

	reply := roundTrip(t, ctx, conn, Request{Type: TypeOCR, Image: "aW1n", TraceID: "abc"})
	if reply["type"] != TypeOCRResult || reply["text"] != "你好 world" {
		t.Errorf("reply = %v", reply)
	}
}

func TestWebSocketErrors(t *testing.T) {
	svc := newMockService()
	svc.ocrErr = apperr.New(apperr.CodeOCRLanguageMissing, "install tesseract-ocr-chi-sim")
	conn, ctx := dialWS(t, svc)

	reply := roundTrip(t, ctx, conn, Request{Type: TypeOCR, ID: "x", Image: "aW1n"})
	if reply["type"] != TypeError || reply["code"] != "OCR_LANGUAGE_MISSING" || reply["id"] != "x" {
		t.Errorf("reply = %v", reply)
	}
	if reply["message"] != "install tesseract-ocr-chi-sim" {
		t.Errorf("message = %v", reply["message"])
	}

	reply = roundTrip(t, ctx, conn, Request{Type: "dance"})
	if reply["type"] != TypeError || reply["code"] != "INVALID_ARGUMENT" {
		t.Errorf("unknown type reply = %v", reply)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	conn, ctx := dialWS(t, newMockService())

	limited := 0
	for i := 0; i < RateLimitMessages+2; i++ {
		reply := roundTrip(t, ctx, conn, Request{Type: TypeCapture})
		if reply["type"] == TypeError && reply["message"] == "rate limit exceeded" {
			limited++
		}
	}
	if limited == 0 {
		t.Error("expected some messages to be rate limited")
	}
}
