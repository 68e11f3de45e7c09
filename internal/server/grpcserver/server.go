// Package grpcserver builds the gRPC server shared by the catalog services.
package grpcserver

import (
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server pairs the gRPC server with its health service so callers can flip
// serving status during startup and shutdown.
type Server struct {
	*grpc.Server
	Health *health.Server
}

// NewServer installs recovery, request context and logging interceptors, in
// that order, and registers health and reflection. Health starts NOT_SERVING.
func NewServer(log logger.ZapLogger) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RecoveryInterceptor(log),
			middleware.ContextInterceptor(),
			middleware.LoggingInterceptor(log),
		),
	)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return &Server{Server: s, Health: hs}
}

// MarkServing flips the overall and per-service status to SERVING.
func (s *Server) MarkServing() {
	s.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for name := range s.GetServiceInfo() {
		s.Health.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
}

// Shutdown reports NOT_SERVING and drains in-flight calls.
func (s *Server) Shutdown() {
	s.Health.Shutdown()
	s.GracefulStop()
}
