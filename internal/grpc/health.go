package grpc

import (
	"context"
	"log/slog"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health check name reported for the task tracker
const ServiceName = "tasktracker.Tasks"

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer reports SERVING while the record store answers pings
type HealthServer struct {
	server *health.Server
	pinger Pinger
	logger *slog.Logger
}

// NewHealthServer creates a health server that starts out NOT_SERVING
func NewHealthServer(pinger Pinger, logger *slog.Logger) *HealthServer {
	h := &HealthServer{
		server: health.NewServer(),
		pinger: pinger,
		logger: logger,
	}
	h.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return h
}

// Register attaches the health service to a gRPC server
func (h *HealthServer) Register(s *gogrpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.server)
}

// Probe pings the store and updates the reported status
func (h *HealthServer) Probe(ctx context.Context) {
	if err := h.pinger.PingContext(ctx); err != nil {
		h.logger.Warn("⚠️ [Health] Database ping failed", "error", err)
		h.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
}

// Shutdown marks every service NOT_SERVING and ignores later updates
func (h *HealthServer) Shutdown() {
	h.server.Shutdown()
}

func (h *HealthServer) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}
