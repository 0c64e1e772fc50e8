package rpc

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/prinsp/internal/trace"
)

// Server is a gRPC server hosting ScreenText and the standard health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer registers ops behind a traced gRPC server accepting messages up
// to MaxMessageSize. opts are applied after the defaults.
func NewServer(ops Operations, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
		grpc.ChainUnaryInterceptor(trace.UnaryServerInterceptor()),
	}, opts...)
	gs := grpc.NewServer(opts...)
	gs.RegisterService(&ServiceDesc, NewService(ops))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpc: gs, health: hs}
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// SetServing flips the ScreenText health status, which tracks OCR readiness.
// The server-wide status ("") stays SERVING until Stop, so clients can tell an
// unreachable server from one without a working engine.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
}

// Stop marks the server unhealthy and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
