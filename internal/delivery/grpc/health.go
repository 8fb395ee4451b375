package grpc

import (
	"context"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "reservation.v1.ReservationService"

// HealthReporter publishes the sweeper state through the standard gRPC
// health service. The overall ("") status mirrors ServiceName.
type HealthReporter struct {
	srv      *health.Server
	sweep    service.SweepProcessor
	l        logger.Logger
	interval time.Duration
}

func NewHealthReporter(sweep service.SweepProcessor, l logger.Logger, interval time.Duration) *HealthReporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	h := &HealthReporter{
		srv:      health.NewServer(),
		sweep:    sweep,
		l:        l,
		interval: interval,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Refresh reports SERVING while the sweeper is running.
func (h *HealthReporter) Refresh() healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if h.sweep.GetStatus().IsRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.set(status)
	return status
}

// Run refreshes the status until ctx is done, then marks everything as
// not serving.
func (h *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Refresh()
	for {
		select {
		case <-ctx.Done():
			h.l.Info(ctx, "gRPC health reporter stopped")
			h.srv.Shutdown()
			return nil
		case <-ticker.C:
			h.Refresh()
		}
	}
}

func (h *HealthReporter) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}
