// Package rpc serves the boundary operations over gRPC as prinsp.v1.ScreenText.
// Messages are protobuf well-known types, so no generated code is needed.
package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
	"github.com/GriffinCanCode/prinsp/internal/orchestrator"
)

const (
	ServiceName = "prinsp.v1.ScreenText"

	CaptureScreenMethod = "/" + ServiceName + "/CaptureScreen"
	ExtractTextMethod   = "/" + ServiceName + "/ExtractText"

	// Response header keys set by CaptureScreen.
	BackendHeader = "x-prinsp-backend"
	ChangedHeader = "x-prinsp-changed"

	// MaxMessageSize bounds requests and replies on both ends. It fits a
	// base64 4K screenshot.
	MaxMessageSize = 64 << 20
)

// ScreenTextServer is the server API for prinsp.v1.ScreenText.
type ScreenTextServer interface {
	// CaptureScreen returns the screenshot as base64 PNG.
	CaptureScreen(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	// ExtractText recognizes the base64 image in the request.
	ExtractText(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// ServiceDesc describes prinsp.v1.ScreenText for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScreenTextServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CaptureScreen", Handler: captureScreenHandler},
		{MethodName: "ExtractText", Handler: extractTextHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "prinsp/v1/screentext.proto",
}

func captureScreenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScreenTextServer).CaptureScreen(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CaptureScreenMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScreenTextServer).CaptureScreen(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func extractTextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScreenTextServer).ExtractText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExtractTextMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScreenTextServer).ExtractText(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Operations is what the gRPC service needs from the orchestrator.
type Operations interface {
	CaptureScreen(ctx context.Context) (orchestrator.Capture, error)
	OCRImage(ctx context.Context, b64 string) (string, error)
}

// Service implements ScreenTextServer on top of Operations.
type Service struct {
	ops Operations
}

// NewService creates the gRPC service implementation.
func NewService(ops Operations) *Service {
	return &Service{ops: ops}
}

func (s *Service) CaptureScreen(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	c, err := s.ops.CaptureScreen(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	changed := "false"
	if c.Changed {
		changed = "true"
	}
	// best effort: the image is the payload, the headers are informational
	_ = grpc.SetHeader(ctx, metadata.Pairs(BackendHeader, c.Backend, ChangedHeader, changed))
	return wrapperspb.String(c.Image), nil
}

func (s *Service) ExtractText(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	text, err := s.ops.OCRImage(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(text), nil
}

// toStatus converts err to a gRPC status error carrying an ErrorInfo detail.
func toStatus(err error) error {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		appErr = apperr.Wrap(err, apperr.CodeInternal, "")
	}
	return appErr.GRPCStatus().Err()
}
