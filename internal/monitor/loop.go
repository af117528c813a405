package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/emergency-beacon/internal/alert"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/liveness"
	"github.com/oshokin/emergency-beacon/internal/logger"
	"github.com/oshokin/emergency-beacon/internal/metrics"
)

const (
	// DefaultPollInterval is how often the loop evaluates the tracker.
	DefaultPollInterval = 30 * time.Second
	// DefaultStalenessThreshold is the silence tolerated before alerting.
	DefaultStalenessThreshold = 120 * time.Second
)

// Tracker is the liveness state the loop evaluates.
type Tracker interface {
	Evaluate(threshold time.Duration) (*domain.Snapshot, liveness.Verdict)
}

// Alerter sends the automatic alert for a last known location.
type Alerter interface {
	Automatic(ctx context.Context, last *domain.Location) *alert.Outcome
}

// Options controls the loop schedule.
type Options struct {
	// PollInterval is the time between evaluations.
	PollInterval time.Duration
	// StalenessThreshold is the longest tolerated silence.
	StalenessThreshold time.Duration
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Loop periodically checks the tracker and fires automatic alerts.
type Loop struct {
	tracker   Tracker
	alerter   Alerter
	interval  time.Duration
	threshold time.Duration
	metrics   *metrics.Metrics
}

// New creates a loop, filling zero options with defaults.
func New(tracker Tracker, alerter Alerter, opts Options) *Loop {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.StalenessThreshold <= 0 {
		opts.StalenessThreshold = DefaultStalenessThreshold
	}

	return &Loop{
		tracker:   tracker,
		alerter:   alerter,
		interval:  opts.PollInterval,
		threshold: opts.StalenessThreshold,
		metrics:   opts.Metrics,
	}
}

// Run ticks until ctx is canceled. It never returns an error from a tick.
func (l *Loop) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "monitor")

	logger.InfoKV(ctx, "Heartbeat monitor started",
		"poll_interval", l.interval.String(),
		"staleness_threshold", l.threshold.String())

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Heartbeat monitor stopped")
			return nil
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick performs one evaluation. Disarming happens inside the tracker before
// any I/O, so a slow or failing alert never delays heartbeats and never
// fires twice for the same episode.
func (l *Loop) Tick(ctx context.Context) (verdict liveness.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Monitor tick panicked", "panic", fmt.Sprint(r))
		}
	}()

	snapshot, verdict := l.tracker.Evaluate(l.threshold)
	l.metrics.Tick(verdict.String())

	switch verdict {
	case liveness.VerdictIdle, liveness.VerdictFresh:
		logger.DebugKV(ctx, "Monitor tick", "verdict", verdict.String(), "armed", snapshot.MonitoringArmed)
	case liveness.VerdictNoLocation:
		logger.WarnKV(ctx, "Heartbeat lost but no location is known yet, will retry",
			"last_heartbeat_at", snapshot.LastHeartbeatAt)
	case liveness.VerdictFired:
		logger.WarnKV(ctx, "Heartbeat lost, sending automatic alert",
			"last_heartbeat_at", snapshot.LastHeartbeatAt,
			"coordinates", snapshot.LastKnownLocation.String())

		outcome := l.alerter.Automatic(ctx, snapshot.LastKnownLocation)
		if outcome == nil || !outcome.Sent {
			logger.Error(ctx, "Automatic alert failed, monitoring stays disarmed until the next heartbeat")
		}
	}

	return verdict
}
