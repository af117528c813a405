package beacon

import "time"

// Snapshot is a consistent view of liveness state taken under a single lock.
type Snapshot struct {
	// LastHeartbeatAt is when the most recent heartbeat was recorded.
	LastHeartbeatAt time.Time
	// LastKnownLocation is the most recent heartbeat position, nil if none arrived yet.
	LastKnownLocation *Location
	// MonitoringArmed reports whether a sustained silence will fire an automatic alert.
	MonitoringArmed bool
}

// Silence returns how long the client has been quiet at the given instant.
func (s *Snapshot) Silence(now time.Time) time.Duration {
	return now.Sub(s.LastHeartbeatAt)
}

// Clone returns a copy of the snapshot to avoid leaking internal references.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		LastHeartbeatAt:   s.LastHeartbeatAt,
		LastKnownLocation: s.LastKnownLocation.Clone(),
		MonitoringArmed:   s.MonitoringArmed,
	}
}
