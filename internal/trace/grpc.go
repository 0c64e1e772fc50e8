package trace

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryClientInterceptor sends the trace in ctx (or a new one) as outgoing
// metadata.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(injectMetadata(ctx), method, req, reply, cc, opts...)
	}
}

// UnaryServerInterceptor continues the caller's trace and logs each call.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		tc := fromIncoming(incoming(ctx, TraceIDKey), incoming(ctx, SpanIDKey))
		ctx = WithContext(ctx, tc)

		start := time.Now()
		resp, err := handler(ctx, req)
		log := Logger(ctx).With("method", info.FullMethod, "duration", time.Since(start))
		if err != nil {
			log.Warn("grpc call failed", "code", status.Code(err), "error", err)
		} else {
			log.Debug("grpc call")
		}
		return resp, err
	}
}

func incoming(ctx context.Context, key string) string {
	if vals := metadata.ValueFromIncomingContext(ctx, key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func injectMetadata(ctx context.Context) context.Context {
	ctx, tc := EnsureContext(ctx)

	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.New(nil)
	}
	md.Set(TraceIDKey, tc.TraceID)
	md.Set(SpanIDKey, tc.SpanID)
	if tc.ParentSpanID != "" {
		md.Set(ParentSpanIDKey, tc.ParentSpanID)
	}
	return metadata.NewOutgoingContext(ctx, md)
}
