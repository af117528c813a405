package geocoding

import (
	"context"
	"time"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/logger"
)

// Lookuper performs a reverse geocoding request that may fail.
type Lookuper interface {
	Lookup(ctx context.Context, coords domain.Coordinates) (string, error)
}

// Client resolves coordinates to an address and never fails.
type Client struct {
	// backend is the real lookup; nil means always use the fallback.
	backend Lookuper
	// timeout bounds a single lookup.
	timeout time.Duration
}

// NewClient wraps backend with a per-call timeout. A nil backend disables lookups.
func NewClient(backend Lookuper, timeout time.Duration) *Client {
	return &Client{
		backend: backend,
		timeout: timeout,
	}
}

// Resolve returns the address for coords or the coordinate fallback.
func (c *Client) Resolve(ctx context.Context, coords domain.Coordinates) string {
	if c == nil || c.backend == nil {
		return Fallback(coords)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	address, err := c.backend.Lookup(ctx, coords)
	if err != nil {
		logger.WarnKV(ctx, "Reverse geocoding failed, using coordinates", "coordinates", coords.String(), "error", err)

		return Fallback(coords)
	}

	if address == "" {
		return Fallback(coords)
	}

	return address
}

// Fallback renders coordinates as "Lat: {lat}, Lon: {lon}".
func Fallback(coords domain.Coordinates) string {
	return "Lat: " + domain.FormatDegrees(coords.Latitude) + ", Lon: " + domain.FormatDegrees(coords.Longitude)
}
