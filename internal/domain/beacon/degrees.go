package beacon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotANumber is returned when a coordinate component is neither a number
// nor a numeric string.
var ErrNotANumber = errors.New("coordinate is not a number")

// ParseDegrees decodes one JSON coordinate component. Absent and null yield nil.
// Numeric strings are accepted because browsers often send them.
func ParseDegrees(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil //nolint:nilnil // Absent is a valid, non-error state.
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotANumber, raw)
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}

	return &n, nil
}

// CoordinatesFromJSON parses and validates a raw latitude and longitude pair.
// It returns nil coordinates and no error when both components are absent.
func CoordinatesFromJSON(latitude, longitude json.RawMessage) (*Coordinates, error) {
	lat, err := ParseDegrees(latitude)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}

	lon, err := ParseDegrees(longitude)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}

	if lat == nil && lon == nil {
		return nil, nil //nolint:nilnil // No position reported.
	}

	return CoordinatesFrom(lat, lon)
}
