package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// defaultFlushTimeout is used when the caller's context has no deadline.
const defaultFlushTimeout = 5 * time.Second

// errNATSNotConnected is returned when the nats channel has no connection.
var errNATSNotConnected = errors.New("nats connection is not configured")

// NATS publishes messages on a subject for downstream relays.
type NATS struct {
	Conn    *nats.Conn
	Subject string
}

// Deliver publishes message and waits for the server to acknowledge the flush.
func (n *NATS) Deliver(ctx context.Context, message string) error {
	if n.Conn == nil {
		return errNATSNotConnected
	}

	if err := n.Conn.Publish(n.Subject, []byte(message)); err != nil {
		return fmt.Errorf("publish %s: %w", n.Subject, err)
	}

	flush := n.Conn.FlushWithContext
	if _, ok := ctx.Deadline(); !ok {
		flush = func(context.Context) error { return n.Conn.FlushTimeout(defaultFlushTimeout) }
	}

	if err := flush(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", n.Subject, err)
	}

	return nil
}
