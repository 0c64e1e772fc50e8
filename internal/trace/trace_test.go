package trace

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestNewContext(t *testing.T) {
	tc := New()
	if len(tc.TraceID) != 32 {
		t.Errorf("trace ID should be 32 chars, got %d", len(tc.TraceID))
	}
	if len(tc.SpanID) != 16 {
		t.Errorf("span ID should be 16 chars, got %d", len(tc.SpanID))
	}
	if tc.ParentSpanID != "" {
		t.Error("new context should not have parent span ID")
	}
}

func TestIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newTraceID()
		if seen[id] {
			t.Fatal("generated duplicate trace ID")
		}
		seen[id] = true
	}
}

func TestNewChild(t *testing.T) {
	parent := New()
	child := NewChild(parent)

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.SpanID == parent.SpanID {
		t.Error("child should have new span ID")
	}
	if child.ParentSpanID != parent.SpanID {
		t.Error("child's parent should be parent's span ID")
	}
	if root := NewChild(Context{}); root.TraceID == "" || root.ParentSpanID != "" {
		t.Errorf("NewChild(zero) = %+v, want a new root", root)
	}
}

func TestEnsureContext(t *testing.T) {
	ctx, tc := EnsureContext(context.Background())
	if len(tc.TraceID) != 32 {
		t.Error("should create trace ID")
	}
	if _, again := EnsureContext(ctx); again.TraceID != tc.TraceID {
		t.Error("should return existing trace")
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("should not find trace context in empty context")
	}
}

func TestSpan(t *testing.T) {
	logs := captureLogs(t)

	ctx, parent := StartSpan(context.Background(), "capture")
	_, child := StartSpan(ctx, "backend")
	if child.Ctx.TraceID != parent.Ctx.TraceID || child.Ctx.ParentSpanID != parent.Ctx.SpanID {
		t.Errorf("child = %+v, parent = %+v", child.Ctx, parent.Ctx)
	}

	child.SetAttr("backend", "grim")
	child.End(nil)
	parent.End(errors.New("all backends failed"))

	out := logs.String()
	if !strings.Contains(out, "span=backend") || !strings.Contains(out, "backend=grim") {
		t.Errorf("success span not logged with attrs:\n%s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "all backends failed") {
		t.Errorf("failed span not logged as warning:\n%s", out)
	}
}

func TestLogger(t *testing.T) {
	logs := captureLogs(t)
	tc := New()

	Logger(WithContext(context.Background(), tc)).Info("hello")
	if !strings.Contains(logs.String(), "trace_id="+tc.TraceID) {
		t.Errorf("log line missing trace id: %s", logs.String())
	}
}

func TestMiddleware(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/capture", nil)
	req.Header.Set(TraceIDKey, "0af7651916cd43dd8448eb211c80319c")
	req.Header.Set(SpanIDKey, "b7ad6b7169203331")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got.TraceID != "0af7651916cd43dd8448eb211c80319c" || got.ParentSpanID != "b7ad6b7169203331" {
		t.Errorf("context = %+v, want caller's trace continued", got)
	}
	if rec.Header().Get(TraceIDKey) != got.TraceID {
		t.Error("trace id should be echoed in the response")
	}
}

func TestMiddlewareNewTrace(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(got.TraceID) != 32 || got.ParentSpanID != "" {
		t.Errorf("context = %+v, want a new root trace", got)
	}
}

func TestExtractFromJSON(t *testing.T) {
	tc, ok := ExtractFromJSON([]byte(`{"type":"capture","trace_id":"abc"}`))
	if !ok || tc.TraceID != "abc" {
		t.Errorf("ExtractFromJSON() = %+v, %v", tc, ok)
	}

	for _, msg := range []string{`{"type":"capture"}`, `not json`} {
		tc, ok := ExtractFromJSON([]byte(msg))
		if ok || tc.TraceID == "" {
			t.Errorf("ExtractFromJSON(%q) = %+v, %v; want a fresh trace", msg, tc, ok)
		}
	}
}

func TestUnaryClientInterceptor(t *testing.T) {
	tc := New()
	ctx := WithContext(context.Background(), tc)

	var md metadata.MD
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}
	if err := UnaryClientInterceptor()(ctx, "/prinsp.v1.ScreenText/CaptureScreen", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}

	if got := md.Get(TraceIDKey); len(got) != 1 || got[0] != tc.TraceID {
		t.Errorf("outgoing %s = %v", TraceIDKey, got)
	}
	if got := md.Get(SpanIDKey); len(got) != 1 || got[0] != tc.SpanID {
		t.Errorf("outgoing %s = %v", SpanIDKey, got)
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	captureLogs(t)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(TraceIDKey, "trace123", SpanIDKey, "span456"))

	var got Context
	handler := func(ctx context.Context, req any) (any, error) {
		got, _ = FromContext(ctx)
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/prinsp.v1.ScreenText/ExtractText"}
	resp, err := UnaryServerInterceptor()(ctx, nil, info, handler)
	if err != nil || resp != "ok" {
		t.Fatalf("interceptor = %v, %v", resp, err)
	}

	if got.TraceID != "trace123" || got.ParentSpanID != "span456" || got.SpanID == "" {
		t.Errorf("handler context = %+v", got)
	}
}
