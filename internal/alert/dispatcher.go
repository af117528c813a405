package alert

import (
	"context"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/logger"
	"github.com/oshokin/emergency-beacon/internal/metrics"
)

// Geocoder resolves coordinates to an address and never fails.
type Geocoder interface {
	Resolve(ctx context.Context, coords domain.Coordinates) string
}

// Sender delivers a message and reports success.
type Sender interface {
	Send(ctx context.Context, message string) bool
}

// Outcome describes one dispatched alert.
type Outcome struct {
	// ID is the alert identifier.
	ID string
	// Kind is the template that was used.
	Kind domain.AlertKind
	// Message is the composed body.
	Message string
	// Sent reports whether the channel accepted the message.
	Sent bool
}

// Dispatcher drives Geocoder, Composer and Sender for a single alert.
type Dispatcher struct {
	geocoder Geocoder
	sender   Sender
	composer *Composer
	metrics  *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMetrics records alert outcomes in m.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithClock replaces the time source used for alert timestamps.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher wires the collaborators. A nil composer uses the defaults.
func NewDispatcher(geocoder Geocoder, sender Sender, composer *Composer, opts ...DispatcherOption) *Dispatcher {
	if composer == nil {
		composer = NewComposer()
	}

	d := &Dispatcher{
		geocoder: geocoder,
		sender:   sender,
		composer: composer,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Manual sends an alert requested by the person at coords.
// It does not consult or modify liveness state.
func (d *Dispatcher) Manual(ctx context.Context, coords domain.Coordinates, kind domain.AlertKind) *Outcome {
	return d.dispatch(ctx, &domain.AlertContext{
		Kind:        kind,
		Coordinates: coords,
	})
}

// Automatic sends the disconnection alert for the last known location.
func (d *Dispatcher) Automatic(ctx context.Context, last *domain.Location) *Outcome {
	return d.dispatch(ctx, &domain.AlertContext{
		Kind:           domain.AlertKindAutomatic,
		Coordinates:    last.Coordinates,
		LastConnection: last.ObservedAt,
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, ac *domain.AlertContext) *Outcome {
	ac.ID = d.newID()
	ac.Timestamp = d.now()

	ctx = logger.WithKV(ctx, "alert_id", ac.ID)

	ac.Address = d.geocoder.Resolve(ctx, ac.Coordinates)
	message := d.composer.Compose(ac)

	sent := d.sender.Send(ctx, message)
	d.metrics.Alert(string(ac.Kind), sent)

	if sent {
		logger.InfoKV(ctx, "Alert sent", "kind", ac.Kind, "coordinates", ac.Coordinates.String())
	} else {
		logger.ErrorKV(ctx, "Alert could not be delivered", "kind", ac.Kind, "coordinates", ac.Coordinates.String())
	}

	return &Outcome{
		ID:      ac.ID,
		Kind:    ac.Kind,
		Message: message,
		Sent:    sent,
	}
}
