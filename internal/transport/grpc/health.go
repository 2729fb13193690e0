// Package grpc serves the standard gRPC health protocol for the inventory service.
package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name under which the inventory reports its health.
// The empty name reports the health of the whole server and is answered the same way.
const ServiceName = "inventory.v1.ProductService"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthServer struct {
	// Embed the unimplemented server for forward compatibility
	healthpb.UnimplementedHealthServer
	db     Pinger
	logger *slog.Logger
}

func NewHealthServer(db Pinger, logger *slog.Logger) *HealthServer {
	return &HealthServer{db: db, logger: logger.With("component", "grpc")}
}

// Check answers SERVING while the database responds to pings and NOT_SERVING otherwise.
func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	if err := s.db.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "health check failed", "error", err)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
