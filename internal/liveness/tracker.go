package liveness

import (
	"sync"
	"time"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

// Verdict is the result of evaluating the tracker against a staleness threshold.
type Verdict int

const (
	// VerdictIdle means monitoring is not armed, nothing to do.
	VerdictIdle Verdict = iota
	// VerdictFresh means a heartbeat arrived within the threshold.
	VerdictFresh
	// VerdictNoLocation means the client is stale but no location is known, monitoring stays armed.
	VerdictNoLocation
	// VerdictFired means the client is stale with a known location and monitoring was disarmed.
	VerdictFired
)

// String returns the verdict name used in logs and metrics.
func (v Verdict) String() string {
	switch v {
	case VerdictIdle:
		return "idle"
	case VerdictFresh:
		return "fresh"
	case VerdictNoLocation:
		return "no_location"
	case VerdictFired:
		return "fired"
	default:
		return "unknown"
	}
}

// Observer is notified of every state change while the tracker lock is held,
// so observed states arrive in the order they happened. It must not block
// or call back into the tracker.
type Observer interface {
	ObserveState(snapshot *domain.Snapshot)
}

// Tracker serializes all reads and writes of liveness state.
type Tracker struct {
	// now returns the current time, replaceable in tests.
	now func() time.Time
	// observer is optional.
	observer Observer

	// mu protects every field below.
	mu sync.Mutex
	// lastHeartbeatAt is updated only by RecordHeartbeat.
	lastHeartbeatAt time.Time
	// lastKnownLocation is replaced only by RecordHeartbeat with coordinates.
	lastKnownLocation *domain.Location
	// armed is true while a silence should fire an automatic alert.
	armed bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithObserver registers an observer for state changes.
func WithObserver(observer Observer) Option {
	return func(t *Tracker) {
		t.observer = observer
	}
}

// New creates a disarmed tracker with no location and the heartbeat clock
// started at creation time.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.lastHeartbeatAt = t.now()
	t.notifyLocked()

	return t
}

// RecordHeartbeat marks the client alive and re-arms monitoring.
// When coords is non-nil the last known location is replaced as a whole;
// a nil coords leaves the previous location untouched.
// It returns the state right after the heartbeat.
func (t *Tracker) RecordHeartbeat(coords *domain.Coordinates) *domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	t.lastHeartbeatAt = now
	t.armed = true

	if coords != nil {
		t.lastKnownLocation = &domain.Location{
			Coordinates: *coords,
			ObservedAt:  now,
		}
	}

	return t.notifyLocked()
}

// Arm enables monitoring without touching the heartbeat clock.
func (t *Tracker) Arm() *domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.armed = true

	return t.notifyLocked()
}

// Disarm stops monitoring until the next Arm or RecordHeartbeat.
func (t *Tracker) Disarm() *domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.armed = false

	return t.notifyLocked()
}

// Snapshot returns all state fields read under one lock.
func (t *Tracker) Snapshot() *domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotLocked()
}

// Evaluate checks the state against threshold and, when the client is armed,
// stale and located, disarms monitoring in the same critical section.
// A heartbeat landing between a separate Snapshot and Disarm would otherwise
// be silently disarmed. The returned snapshot is the state before disarming.
// Silence equal to threshold is not stale.
func (t *Tracker) Evaluate(threshold time.Duration) (*domain.Snapshot, Verdict) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.snapshotLocked()

	switch {
	case !t.armed:
		return snapshot, VerdictIdle
	case snapshot.Silence(t.now()) <= threshold:
		return snapshot, VerdictFresh
	case t.lastKnownLocation == nil:
		return snapshot, VerdictNoLocation
	}

	t.armed = false
	t.notifyLocked()

	return snapshot, VerdictFired
}

// notifyLocked reports the current state to the observer and returns it;
// the caller must hold mu.
func (t *Tracker) notifyLocked() *domain.Snapshot {
	snapshot := t.snapshotLocked()

	if t.observer != nil {
		t.observer.ObserveState(snapshot.Clone())
	}

	return snapshot
}

// snapshotLocked copies the state; the caller must hold mu.
func (t *Tracker) snapshotLocked() *domain.Snapshot {
	return &domain.Snapshot{
		LastHeartbeatAt:   t.lastHeartbeatAt,
		LastKnownLocation: t.lastKnownLocation.Clone(),
		MonitoringArmed:   t.armed,
	}
}
