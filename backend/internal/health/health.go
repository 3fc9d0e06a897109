// ============================================================================
// backend/internal/health/health.go
// gRPC health and reflection endpoint for the results service
// ============================================================================

package health

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check service name reported for the engine.
const ServiceName = "results.ResultService"

// Pinger checks a dependency, typically the MongoDB primary.
type Pinger func(ctx context.Context) error

// Server exposes grpc.health.v1 so orchestrators can probe the service.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	logger       *zap.Logger
}

// NewServer creates the gRPC server with health and reflection registered.
// The engine starts in NOT_SERVING until SetServing is called.
func NewServer(logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Register reflection service (useful for debugging with grpcurl)
	reflection.Register(grpcServer)

	return &Server{grpcServer: grpcServer, healthServer: healthServer, logger: logger}
}

// SetServing flips the engine's reported status.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.healthServer.SetServingStatus(ServiceName, status)
}

// Check runs ping once and updates the status from its outcome.
func (s *Server) Check(ctx context.Context, ping Pinger) bool {
	if err := ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		s.SetServing(false)
		return false
	}
	s.SetServing(true)
	return true
}

// Serve blocks serving on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("health endpoint listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// Stop reports NOT_SERVING to every watcher, then drains connections.
func (s *Server) Stop() {
	s.healthServer.Shutdown()
	s.grpcServer.GracefulStop()
}
