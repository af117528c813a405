package server

import (
	"context"

	"github.com/oshokin/emergency-beacon/internal/alert"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/liveness"
	"github.com/oshokin/emergency-beacon/internal/logger"
	"github.com/oshokin/emergency-beacon/internal/metrics"
)

// service glues the liveness tracker and the alert dispatcher together.
// It is unexported to keep the transports decoupled from the implementation.
type service struct {
	// tracker holds the single liveness record.
	tracker *liveness.Tracker
	// dispatcher sends manual alerts.
	dispatcher *alert.Dispatcher
	// metrics counts heartbeats; the tracker feeds the gauges itself. May be nil.
	metrics *metrics.Metrics
}

// newService creates a service over the provided collaborators.
func newService(tracker *liveness.Tracker, dispatcher *alert.Dispatcher, m *metrics.Metrics) *service {
	return &service{
		tracker:    tracker,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

// RecordHeartbeat refreshes liveness and re-arms monitoring.
func (s *service) RecordHeartbeat(ctx context.Context, coords *domain.Coordinates) {
	snapshot := s.tracker.RecordHeartbeat(coords)

	s.metrics.Heartbeat(coords != nil)

	if coords != nil {
		logger.DebugKV(ctx, "Heartbeat received",
			"coordinates", coords.String(),
			"armed", snapshot.MonitoringArmed)

		return
	}

	logger.Debug(ctx, "Heartbeat received without coordinates")
}

// StartMonitoring arms the automatic alert.
func (s *service) StartMonitoring(ctx context.Context) {
	s.tracker.Arm()

	logger.Info(ctx, "Monitoring started")
}

// StopMonitoring disarms the automatic alert until the next heartbeat or start.
func (s *service) StopMonitoring(ctx context.Context) {
	s.tracker.Disarm()

	logger.Info(ctx, "Monitoring stopped")
}

// SendAlert dispatches a manual alert. Liveness state is left untouched.
func (s *service) SendAlert(ctx context.Context, coords domain.Coordinates, kind domain.AlertKind) *alert.Outcome {
	logger.InfoKV(ctx, "Manual alert requested", "kind", kind, "coordinates", coords.String())

	return s.dispatcher.Manual(ctx, coords, kind)
}

// Status returns a copy of the liveness record.
func (s *service) Status(context.Context) *domain.Snapshot {
	return s.tracker.Snapshot()
}
