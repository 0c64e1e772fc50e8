package trace

import (
	"encoding/json"
	"net/http"
)

// Middleware puts a server span in the request context, continuing the
// caller's trace when x-trace-id is present, and echoes the trace id back.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := fromIncoming(r.Header.Get(TraceIDKey), r.Header.Get(SpanIDKey))
		w.Header().Set(TraceIDKey, tc.TraceID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
	})
}

// ExtractFromJSON reads an optional trace_id field from a WebSocket message.
// Without one a fresh trace is returned and ok is false.
func ExtractFromJSON(data []byte) (tc Context, ok bool) {
	var msg struct {
		TraceID string `json:"trace_id"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.TraceID == "" {
		return New(), false
	}
	return fromIncoming(msg.TraceID, ""), true
}
