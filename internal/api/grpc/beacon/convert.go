package beacon

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

// Struct field names shared by requests and responses.
const (
	FieldLatitude        = "latitude"
	FieldLongitude       = "longitude"
	FieldType            = "type"
	FieldStatus          = "status"
	FieldArmed           = "armed"
	FieldSuccess         = "success"
	FieldMessage         = "message"
	FieldAlertID         = "alert_id"
	FieldKind            = "kind"
	FieldLastHeartbeatAt = "last_heartbeat_at"
	FieldLastLocation    = "last_location"
	FieldObservedAt      = "observed_at"
)

// errNotANumber is returned when a coordinate field has a non-numeric value.
var errNotANumber = errors.New("value is not a number")

// numberField returns the named numeric field, nil when absent or null.
// Numeric strings are accepted because browsers often send them.
func numberField(s *structpb.Struct, name string) (*float64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, nil //nolint:nilnil // Absent is a valid, non-error state.
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil //nolint:nilnil // Null is treated like absent.
	case *structpb.Value_NumberValue:
		n := kind.NumberValue

		return &n, nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseFloat(strings.TrimSpace(kind.StringValue), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, errNotANumber)
		}

		return &n, nil
	default:
		return nil, fmt.Errorf("%s: %w", name, errNotANumber)
	}
}

// coordinateFields reads latitude and longitude from s.
func coordinateFields(s *structpb.Struct) (latitude, longitude *float64, err error) {
	if latitude, err = numberField(s, FieldLatitude); err != nil {
		return nil, nil, err
	}

	if longitude, err = numberField(s, FieldLongitude); err != nil {
		return nil, nil, err
	}

	return latitude, longitude, nil
}

// HeartbeatRequest builds a heartbeat payload, with coordinates when known.
func HeartbeatRequest(coords *domain.Coordinates) *structpb.Struct {
	fields := map[string]*structpb.Value{}

	if coords != nil {
		fields[FieldLatitude] = structpb.NewNumberValue(coords.Latitude)
		fields[FieldLongitude] = structpb.NewNumberValue(coords.Longitude)
	}

	return &structpb.Struct{Fields: fields}
}

// AlertRequest builds a manual alert payload. An empty alertType is omitted.
func AlertRequest(coords domain.Coordinates, alertType string) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldLatitude:  structpb.NewNumberValue(coords.Latitude),
		FieldLongitude: structpb.NewNumberValue(coords.Longitude),
	}

	if alertType != "" {
		fields[FieldType] = structpb.NewStringValue(alertType)
	}

	return &structpb.Struct{Fields: fields}
}

// statusResponse renders a snapshot.
func statusResponse(snapshot *domain.Snapshot) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldArmed: structpb.NewBoolValue(snapshot.MonitoringArmed),
	}

	if !snapshot.LastHeartbeatAt.IsZero() {
		fields[FieldLastHeartbeatAt] = structpb.NewStringValue(snapshot.LastHeartbeatAt.UTC().Format(time.RFC3339Nano))
	}

	if loc := snapshot.LastKnownLocation; loc != nil {
		fields[FieldLastLocation] = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				FieldLatitude:   structpb.NewNumberValue(loc.Latitude),
				FieldLongitude:  structpb.NewNumberValue(loc.Longitude),
				FieldObservedAt: structpb.NewStringValue(loc.ObservedAt.UTC().Format(time.RFC3339Nano)),
			},
		})
	}

	return &structpb.Struct{Fields: fields}
}

// SnapshotFromStatus parses a GetStatus response back into a snapshot.
func SnapshotFromStatus(s *structpb.Struct) (*domain.Snapshot, error) {
	fields := s.GetFields()

	snapshot := &domain.Snapshot{
		MonitoringArmed: fields[FieldArmed].GetBoolValue(),
	}

	if raw := fields[FieldLastHeartbeatAt].GetStringValue(); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", FieldLastHeartbeatAt, err)
		}

		snapshot.LastHeartbeatAt = ts
	}

	if loc := fields[FieldLastLocation].GetStructValue(); loc != nil {
		latitude, longitude, err := coordinateFields(loc)
		if err != nil {
			return nil, err
		}

		coords, err := domain.CoordinatesFrom(latitude, longitude)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", FieldLastLocation, err)
		}

		observedAt, err := time.Parse(time.RFC3339Nano, loc.GetFields()[FieldObservedAt].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", FieldObservedAt, err)
		}

		snapshot.LastKnownLocation = &domain.Location{
			Coordinates: *coords,
			ObservedAt:  observedAt,
		}
	}

	return snapshot, nil
}

// statusMessage returns a response with a single status field.
func statusMessage(status string) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldStatus: structpb.NewStringValue(status),
		},
	}
}
