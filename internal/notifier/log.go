package notifier

import (
	"context"

	"github.com/oshokin/emergency-beacon/internal/logger"
)

// Log writes messages to the logger instead of sending them. Meant for local runs.
type Log struct{}

// Deliver logs message at warning level, even when log_level hides warnings.
func (Log) Deliver(ctx context.Context, message string) error {
	logger.Always(logger.FromContext(ctx)).Warnw("Emergency message", "body", message)

	return nil
}
