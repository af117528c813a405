package natsbeat

import (
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

// Message is the wire payload of one heartbeat.
type Message struct {
	// Latitude in decimal degrees, omitted when the device has no fix.
	Latitude *float64 `json:"latitude,omitempty"`

	// Longitude in decimal degrees, omitted when the device has no fix.
	Longitude *float64 `json:"longitude,omitempty"`

	// SentAt is informational; liveness uses the server receive time.
	SentAt time.Time `json:"sent_at,omitzero"`
}

// NewMessage builds a heartbeat payload for coords, which may be nil.
func NewMessage(coords *domain.Coordinates, sentAt time.Time) Message {
	msg := Message{SentAt: sentAt.UTC()}

	if coords != nil {
		latitude, longitude := coords.Latitude, coords.Longitude
		msg.Latitude = &latitude
		msg.Longitude = &longitude
	}

	return msg
}

// Decode parses a heartbeat payload. An empty payload is a bare heartbeat.
// Partial, out-of-range or non-numeric coordinates yield a nil location and
// no error, so the heartbeat still counts.
func Decode(data []byte) (*domain.Coordinates, error) {
	if len(data) == 0 {
		return nil, nil //nolint:nilnil // A bare heartbeat has no location.
	}

	var msg struct {
		Latitude  json.RawMessage `json:"latitude"`
		Longitude json.RawMessage `json:"longitude"`
	}

	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode heartbeat: %w", err)
	}

	coords, err := domain.CoordinatesFromJSON(msg.Latitude, msg.Longitude)
	if err != nil {
		return nil, nil //nolint:nilerr,nilnil // Unusable coordinates are dropped, the heartbeat is kept.
	}

	return coords, nil
}
