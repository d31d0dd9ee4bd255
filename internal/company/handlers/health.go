package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported next to the overall "" entry.
const ServiceName = "company.v1.CompanyService"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker pings the database and mirrors the outcome into the gRPC
// health service.
type HealthChecker struct {
	pinger  Pinger
	grpc    *health.Server
	timeout time.Duration
	logger  *zap.Logger
}

func NewHealthChecker(pinger Pinger, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		pinger:  pinger,
		grpc:    health.NewServer(),
		timeout: 2 * time.Second,
		logger:  logger.Named("health"),
	}
}

// GRPC returns the health service to register on a gRPC server.
func (h *HealthChecker) GRPC() *health.Server {
	return h.grpc
}

// Check pings the database once and updates the gRPC serving status.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.pinger.Ping(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.grpc.SetServingStatus("", status)
	h.grpc.SetServingStatus(ServiceName, status)
	return err
}

// Watch re-checks the database every interval until ctx is done, then
// marks the service as shutting down.
func (h *HealthChecker) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := h.Check(ctx); err != nil {
			h.logger.Warn("Database health check failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			h.grpc.Shutdown()
			return
		case <-ticker.C:
		}
	}
}
