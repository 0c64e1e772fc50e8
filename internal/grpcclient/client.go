package grpcclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/orchestrator"
	"github.com/GriffinCanCode/prinsp/internal/resilience"
	"github.com/GriffinCanCode/prinsp/internal/rpc"
	"github.com/GriffinCanCode/prinsp/internal/trace"
)

// Client calls prinsp.v1.ScreenText behind a circuit breaker with retries.
type Client struct {
	conn    *grpc.ClientConn
	health  healthpb.HealthClient
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// New creates a client for addr. Extra options are appended to the defaults.
func New(addr string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    DefaultKeepaliveTime,
			Timeout: DefaultKeepaliveTimeout,
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(rpc.MaxMessageSize), grpc.MaxCallSendMsgSize(rpc.MaxMessageSize)),
		grpc.WithChainUnaryInterceptor(trace.UnaryClientInterceptor()),
	}
	conn, err := grpc.NewClient(addr, append(dialOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	cfg := resilience.DefaultConfig()
	cfg.Name = addr
	return &Client{
		conn:    conn,
		health:  healthpb.NewHealthClient(conn),
		breaker: resilience.New(cfg),
		retry:   resilience.DefaultRetryConfig(),
	}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// invoke runs one unary call with breaker and retry. Errors come back as
// AppErrors rebuilt from the status.
func (c *Client) invoke(ctx context.Context, method string, req, reply any, opts ...grpc.CallOption) error {
	err := resilience.Retry(ctx, c.retry, func() error {
		return c.breaker.Execute(func() error {
			return c.conn.Invoke(ctx, method, req, reply, opts...)
		}, resilience.IsTransient)
	})
	if err == nil {
		return nil
	}
	if err == resilience.ErrOpen {
		return apperr.Wrap(err, apperr.CodeUnavailable, "prinsp server unreachable")
	}
	return apperr.FromGRPCError(err)
}

// CaptureScreen asks the server for a screenshot.
func (c *Client) CaptureScreen(ctx context.Context) (orchestrator.Capture, error) {
	var header metadata.MD
	reply := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, rpc.CaptureScreenMethod, &emptypb.Empty{}, reply, grpc.Header(&header)); err != nil {
		return orchestrator.Capture{}, err
	}

	out := orchestrator.Capture{Image: reply.GetValue()}
	if v := header.Get(rpc.BackendHeader); len(v) > 0 {
		out.Backend = v[0]
	}
	if v := header.Get(rpc.ChangedHeader); len(v) > 0 {
		out.Changed = v[0] == "true"
	}
	return out, nil
}

// ExtractText sends a base64 image for recognition.
func (c *Client) ExtractText(ctx context.Context, b64 string) (string, error) {
	reply := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, rpc.ExtractTextMethod, wrapperspb.String(b64), reply); err != nil {
		return "", err
	}
	return reply.GetValue(), nil
}

// Healthy checks that the server answers its health service within
// HealthCheckTimeout.
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return apperr.Wrapf(err, apperr.CodeUnavailable, "prinsp server at %s unreachable", c.conn.Target())
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return apperr.Newf(apperr.CodeUnavailable, "server is %s", resp.GetStatus())
	}
	return nil
}
