package natsbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/logger"
)

var errConnectionRequired = errors.New("nats connection is required")

// Sink receives decoded heartbeats.
type Sink interface {
	RecordHeartbeat(ctx context.Context, coords *domain.Coordinates)
}

// Subscriber feeds heartbeats published on a subject into a Sink.
type Subscriber struct {
	nc      *nats.Conn
	subject string
	sink    Sink
}

// NewSubscriber creates a subscriber for subject.
func NewSubscriber(nc *nats.Conn, subject string, sink Sink) *Subscriber {
	return &Subscriber{
		nc:      nc,
		subject: subject,
		sink:    sink,
	}
}

// Run subscribes and blocks until ctx is canceled.
func (s *Subscriber) Run(ctx context.Context) error {
	if s.nc == nil {
		return errConnectionRequired
	}

	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}

	defer sub.Unsubscribe() //nolint:errcheck // Connection teardown follows.

	logger.InfoKV(ctx, "Heartbeat ingress subscribed", "subject", s.subject)

	<-ctx.Done()

	return nil
}

func (s *Subscriber) handle(ctx context.Context, msg *nats.Msg) {
	coords, err := Decode(msg.Data)
	if err != nil {
		logger.WarnKV(ctx, "Dropping malformed heartbeat", "subject", msg.Subject, "error", err)

		return
	}

	s.sink.RecordHeartbeat(ctx, coords)
}

// Publisher sends heartbeats to a subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a publisher for subject.
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	return &Publisher{
		nc:      nc,
		subject: subject,
	}
}

// Publish sends one heartbeat and flushes it to the server.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if p.nc == nil {
		return errConnectionRequired
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode heartbeat: %w", err)
	}

	if err = p.nc.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish heartbeat: %w", err)
	}

	if _, ok := ctx.Deadline(); ok {
		return p.nc.FlushWithContext(ctx)
	}

	return p.nc.Flush()
}
