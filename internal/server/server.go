package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/orchestrator"
	"github.com/GriffinCanCode/prinsp/internal/trace"
)

// Service is the set of boundary operations the server exposes.
type Service interface {
	CaptureScreen(ctx context.Context) (orchestrator.Capture, error)
	CaptureScreenAfterHide(ctx context.Context, hide func() error) (orchestrator.Capture, error)
	OCRImage(ctx context.Context, b64 string) (string, error)
	PreferredBackend() (string, bool)
	Status() orchestrator.Status
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	mu         sync.Mutex
	timestamps []time.Time
	limit      int
	window     time.Duration
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{limit: RateLimitMessages, window: RateLimitWindow}
}

// allow records the message and reports whether it is within the limit.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= r.limit {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	svc   Service
	mu    sync.RWMutex
	conns map[*websocket.Conn]*rateLimiter
}

// New creates a server for svc.
func New(svc Service) *Server {
	return &Server{svc: svc, conns: make(map[*websocket.Conn]*rateLimiter)}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/capture", s.handleCapture)
	mux.HandleFunc("POST /api/capture/hidden", s.handleCaptureHidden)
	mux.HandleFunc("POST /api/ocr", s.handleOCR)
	mux.HandleFunc("GET /api/backend", s.handleBackend)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

// CloseAll closes every open WebSocket connection.
func (s *Server) CloseAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := errorCode(err)
	trace.Logger(ctx).Warn("request failed", "code", code, "error", err)
	writeJSON(w, httpStatus(code), ErrorMessage{Type: TypeError, Code: code.String(), Message: apperr.UserMessage(err)})
}

func errorCode(err error) apperr.Code {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return apperr.CodeInternal
}

func httpStatus(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument, apperr.CodeImageDecode:
		return http.StatusBadRequest
	case apperr.CodeTimeout:
		return http.StatusGatewayTimeout
	case apperr.CodeUnavailable, apperr.CodeCaptureFailed, apperr.CodeOCREngineMissing, apperr.CodeOCRLanguageMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.CaptureScreen(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleCaptureHidden is called by a shell that has already hidden its
// window; the server only waits out the hide delay.
func (s *Server) handleCaptureHidden(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.CaptureScreenAfterHide(r.Context(), nil)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	var req OCRRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxImageBytes)).Decode(&req); err != nil {
		writeError(r.Context(), w, apperr.Wrap(err, apperr.CodeInvalidArgument, "invalid request body"))
		return
	}
	text, err := s.svc.OCRImage(r.Context(), req.Image)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, OCRResponse{Text: text})
}

func (s *Server) handleBackend(w http.ResponseWriter, _ *http.Request) {
	b, ok := s.svc.PreferredBackend()
	writeJSON(w, http.StatusOK, BackendResponse{Backend: b, Known: ok})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.Status()
	status := http.StatusOK
	if !st.EngineReady {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := trace.Logger(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
	conn.SetReadLimit(MaxImageBytes)

	rl := newRateLimiter()
	s.mu.Lock()
	s.conns[conn] = rl
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	log.Info("websocket connected", "remote", r.RemoteAddr)
	ctx := r.Context()

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			s.reply(ctx, conn, ErrorMessage{Type: TypeError, Code: apperr.CodeInvalidArgument.String(), Message: "invalid message"})
			continue
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			s.reply(ctx, conn, ErrorMessage{Type: TypeError, ID: req.ID, Code: apperr.CodeUnavailable.String(), Message: "rate limit exceeded"})
			continue
		}

		msgCtx := ctx
		if tc, ok := trace.ExtractFromJSON(raw); ok {
			msgCtx = trace.WithContext(ctx, tc)
		}
		s.reply(ctx, conn, s.dispatch(msgCtx, req))
	}
}

// dispatch runs one WebSocket request and builds its reply.
func (s *Server) dispatch(ctx context.Context, req Request) any {
	var (
		reply any
		err   error
	)
	switch req.Type {
	case TypeCapture:
		var c orchestrator.Capture
		if req.Hidden {
			c, err = s.svc.CaptureScreenAfterHide(ctx, nil)
		} else {
			c, err = s.svc.CaptureScreen(ctx)
		}
		reply = CaptureResult{Type: TypeCaptureResult, ID: req.ID, Capture: c}
	case TypeOCR:
		var text string
		text, err = s.svc.OCRImage(ctx, req.Image)
		reply = OCRResult{Type: TypeOCRResult, ID: req.ID, Text: text}
	default:
		err = apperr.Newf(apperr.CodeInvalidArgument, "unknown message type %q", req.Type)
	}

	if err != nil {
		trace.Logger(ctx).Warn("websocket request failed", "type", req.Type, "id", req.ID, "error", err)
		return ErrorMessage{Type: TypeError, ID: req.ID, Code: errorCode(err).String(), Message: apperr.UserMessage(err)}
	}
	return reply
}

func (s *Server) reply(ctx context.Context, conn *websocket.Conn, msg any) {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		trace.Logger(ctx).Debug("websocket write error", "error", err)
	}
}
