package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/emergency-beacon/internal/logger"
)

// Channel delivers a message over one outbound transport.
type Channel interface {
	Deliver(ctx context.Context, message string) error
}

// Notifier sends messages through a Channel and never propagates failures.
type Notifier struct {
	// name identifies the channel in logs.
	name string
	// channel performs the delivery.
	channel Channel
	// timeout bounds one delivery attempt.
	timeout time.Duration
}

// New wraps channel with a per-send timeout.
func New(name string, channel Channel, timeout time.Duration) *Notifier {
	return &Notifier{
		name:    name,
		channel: channel,
		timeout: timeout,
	}
}

// Name returns the channel name.
func (n *Notifier) Name() string {
	return n.name
}

// Send delivers message once and reports whether it succeeded.
// Transport, configuration and panicking channel errors all yield false.
func (n *Notifier) Send(ctx context.Context, message string) (ok bool) {
	ctx = logger.WithKV(ctx, "channel", n.name)

	if n.channel == nil {
		logger.Error(ctx, "Notification channel is not configured")

		return false
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Notification channel panicked", "panic", fmt.Sprint(r))

			ok = false
		}
	}()

	if err := n.channel.Deliver(ctx, message); err != nil {
		logger.ErrorKV(ctx, "Failed to deliver notification", "error", err)

		return false
	}

	logger.Info(ctx, "Notification delivered")

	return true
}
