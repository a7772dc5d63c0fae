package server

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GatewayService is the service name reported by the health server.
const GatewayService = "lineclash.Gateway"

// Health exposes the standard gRPC health service for orchestration probes.
type Health struct {
	logger *zap.Logger
	server *grpc.Server
	status *health.Server
}

// NewHealth creates a health server reporting NOT_SERVING until SetServing.
func NewHealth(logger *zap.Logger) *Health {
	if logger == nil {
		logger = zap.NewNop()
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(GatewayService, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Health{logger: logger, server: gs, status: hs}
}

// SetServing updates the reported status.
func (h *Health) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.status.SetServingStatus("", status)
	h.status.SetServingStatus(GatewayService, status)
	h.logger.Info("health status changed", zap.String("status", status.String()))
}

// Serve blocks serving health checks on lis.
func (h *Health) Serve(lis net.Listener) error {
	h.logger.Info("starting gRPC health server", zap.String("address", lis.Addr().String()))
	return h.server.Serve(lis)
}

// Stop shuts the health server down.
func (h *Health) Stop() {
	h.status.Shutdown()
	h.server.GracefulStop()
}
