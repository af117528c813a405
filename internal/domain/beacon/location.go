package beacon

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrLatitudeOutOfRange is returned when latitude is outside [-90, 90].
	ErrLatitudeOutOfRange = errors.New("latitude must be within [-90, 90]")
	// ErrLongitudeOutOfRange is returned when longitude is outside [-180, 180].
	ErrLongitudeOutOfRange = errors.New("longitude must be within [-180, 180]")
	// ErrCoordinatesRequired is returned when latitude or longitude is missing.
	ErrCoordinatesRequired = errors.New("latitude and longitude are required")
)

// Coordinates is a WGS84 position reported by the client.
type Coordinates struct {
	// Latitude in decimal degrees.
	Latitude float64
	// Longitude in decimal degrees.
	Longitude float64
}

// CoordinatesFrom builds validated coordinates from optional components.
// Both components must be present.
func CoordinatesFrom(latitude, longitude *float64) (*Coordinates, error) {
	if latitude == nil || longitude == nil {
		return nil, ErrCoordinatesRequired
	}

	c := &Coordinates{
		Latitude:  *latitude,
		Longitude: *longitude,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks that both components are within their geographic ranges.
// NaN fails both checks.
func (c Coordinates) Validate() error {
	if !(c.Latitude >= -90 && c.Latitude <= 90) {
		return fmt.Errorf("%w: %v", ErrLatitudeOutOfRange, c.Latitude)
	}

	if !(c.Longitude >= -180 && c.Longitude <= 180) {
		return fmt.Errorf("%w: %v", ErrLongitudeOutOfRange, c.Longitude)
	}

	return nil
}

// String renders coordinates as "lat, lon" using the shortest exact decimal form.
func (c Coordinates) String() string {
	return FormatDegrees(c.Latitude) + ", " + FormatDegrees(c.Longitude)
}

// Clone returns a copy of the coordinates or nil.
func (c *Coordinates) Clone() *Coordinates {
	if c == nil {
		return nil
	}

	cloned := *c

	return &cloned
}

// FormatDegrees formats a single coordinate component without trailing zeros.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Location is the last known position together with the time it was observed.
type Location struct {
	Coordinates

	// ObservedAt is when the heartbeat carrying these coordinates was recorded.
	ObservedAt time.Time
}

// Clone returns a copy of the location or nil.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}

	cloned := *l

	return &cloned
}
