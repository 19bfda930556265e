package api

import (
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name reported alongside the overall status
const HealthService = "alertd"

// HealthServer exposes the standard gRPC health service. It reports
// NOT_SERVING once the alert session has halted.
type HealthServer struct {
	logger zerolog.Logger
	grpc   *grpc.Server
	health *health.Server
}

// NewHealthServer creates a health server reporting SERVING
func NewHealthServer(logger zerolog.Logger) *HealthServer {
	h := &HealthServer{
		logger: logger.With().Str("component", "grpc-health").Logger(),
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(h.grpc, h.health)
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.health.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	return h
}

// MarkHalted flips both statuses to NOT_SERVING
func (h *HealthServer) MarkHalted() {
	h.logger.Warn().Msg("Alert session halted, reporting NOT_SERVING")
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.health.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
}

// Serve blocks serving gRPC on lis
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info().Str("address", lis.Addr().String()).Msg("Starting gRPC health server")
	return h.grpc.Serve(lis)
}

// Stop shuts the server down
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
