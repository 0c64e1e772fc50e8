// Package trace carries W3C-style trace and span ids through HTTP,
// WebSocket and gRPC calls and stamps them on log lines.
package trace

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Header and metadata keys used for propagation.
const (
	TraceIDKey      = "x-trace-id"
	SpanIDKey       = "x-span-id"
	ParentSpanIDKey = "x-parent-span-id"
)

type ctxKey struct{}

// Context identifies one span of a trace.
type Context struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// New starts a fresh trace.
func New() Context {
	return Context{TraceID: newTraceID(), SpanID: newSpanID()}
}

// NewChild opens a span below parent. A zero parent starts a new trace.
func NewChild(parent Context) Context {
	if parent.TraceID == "" {
		return New()
	}
	return Context{TraceID: parent.TraceID, SpanID: newSpanID(), ParentSpanID: parent.SpanID}
}

// FromContext returns the trace carried by ctx.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// WithContext attaches tc to ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// EnsureContext returns ctx unchanged if it already carries a trace.
func EnsureContext(ctx context.Context) (context.Context, Context) {
	if tc, ok := FromContext(ctx); ok {
		return ctx, tc
	}
	tc := New()
	return WithContext(ctx, tc), tc
}

// fromIncoming builds the server-side span for a caller's ids. The caller's
// span becomes the parent.
func fromIncoming(traceID, spanID string) Context {
	if traceID == "" {
		return New()
	}
	return Context{TraceID: traceID, SpanID: newSpanID(), ParentSpanID: spanID}
}

// newTraceID is 128 random bits in hex.
func newTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// newSpanID is 64 random bits in hex.
func newSpanID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}

func (c Context) logArgs() []any {
	args := []any{"trace_id", c.TraceID, "span_id", c.SpanID}
	if c.ParentSpanID != "" {
		args = append(args, "parent_span_id", c.ParentSpanID)
	}
	return args
}

// Span times one named operation.
type Span struct {
	Name  string
	Ctx   Context
	start time.Time
	attrs []any
}

// StartSpan opens a child span of the trace in ctx.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent, _ := FromContext(ctx)
	s := &Span{Name: name, Ctx: NewChild(parent), start: time.Now()}
	return WithContext(ctx, s.Ctx), s
}

// SetAttr records a key/value logged when the span ends.
func (s *Span) SetAttr(key string, val any) {
	s.attrs = append(s.attrs, key, val)
}

// End logs the span with its duration: debug on success, warn on error.
func (s *Span) End(err error) time.Duration {
	elapsed := time.Since(s.start)
	args := append(s.Ctx.logArgs(), "span", s.Name, "duration", elapsed)
	args = append(args, s.attrs...)
	if err != nil {
		slog.Warn("span failed", append(args, "error", err)...)
	} else {
		slog.Debug("span complete", args...)
	}
	return elapsed
}

// Logger returns the default logger with the trace ids from ctx.
func Logger(ctx context.Context) *slog.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With(tc.logArgs()...)
}
