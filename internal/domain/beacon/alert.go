package beacon

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AlertKind tells whether an alert was requested by the person or raised by the monitor.
type AlertKind string

const (
	// AlertKindManual is an alert explicitly triggered by the monitored person.
	AlertKindManual AlertKind = "manual"
	// AlertKindAutomatic is an alert raised because heartbeats stopped.
	AlertKindAutomatic AlertKind = "automatic"
)

// ErrUnknownAlertKind is returned for alert type values that are not recognized.
var ErrUnknownAlertKind = errors.New("unknown alert type")

// ParseAlertKind maps the ingress "type" field to an AlertKind.
// An empty value means manual; "auto" is accepted as an alias of automatic.
func ParseAlertKind(s string) (AlertKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual":
		return AlertKindManual, nil
	case "auto", "automatic":
		return AlertKindAutomatic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlertKind, s)
	}
}

// AlertContext carries everything needed to compose one outbound message.
// It is built per alert and discarded once the message is sent.
type AlertContext struct {
	// ID uniquely identifies the alert in logs and responses.
	ID string
	// Kind selects the message template.
	Kind AlertKind
	// Coordinates is where the person is, or was last seen.
	Coordinates Coordinates
	// Address is the human-readable form of Coordinates.
	Address string
	// Timestamp is when the alert was raised.
	Timestamp time.Time
	// LastConnection is when the last located heartbeat arrived; zero when unknown.
	LastConnection time.Time
}

// HasLastConnection reports whether the prior-connection time is known.
func (a *AlertContext) HasLastConnection() bool {
	return !a.LastConnection.IsZero()
}
