package beacon

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/emergency-beacon/internal/alert"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/logger"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	RecordHeartbeat(ctx context.Context, coords *domain.Coordinates)
	StartMonitoring(ctx context.Context)
	StopMonitoring(ctx context.Context)
	SendAlert(ctx context.Context, coords domain.Coordinates, kind domain.AlertKind) *alert.Outcome
	Status(ctx context.Context) *domain.Snapshot
}

// Server implements the BeaconService gRPC API.
type Server struct {
	// service provides the business logic for beacon operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Heartbeat records a liveness signal. Incomplete, out-of-range or
// non-numeric coordinates are dropped but the heartbeat itself still counts.
func (s *Server) Heartbeat(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var coords *domain.Coordinates

	latitude, longitude, err := coordinateFields(req)
	if err == nil && (latitude != nil || longitude != nil) {
		coords, err = domain.CoordinatesFrom(latitude, longitude)
	}

	if err != nil {
		logger.DebugKV(ctx, "Ignoring heartbeat coordinates", "error", err)
	}

	s.service.RecordHeartbeat(ctx, coords)

	return statusMessage("ok"), nil
}

// SendEmergencyAlert sends a manual alert for the given coordinates.
func (s *Server) SendEmergencyAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	latitude, longitude, err := coordinateFields(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	coords, err := domain.CoordinatesFrom(latitude, longitude)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	kind, err := domain.ParseAlertKind(req.GetFields()[FieldType].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	outcome := s.service.SendAlert(ctx, *coords, kind)
	if outcome == nil || !outcome.Sent {
		return nil, status.Error(codes.Unavailable, "unable to deliver alert")
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldSuccess: structpb.NewBoolValue(true),
			FieldMessage: structpb.NewStringValue("Alerta enviada correctamente"),
			FieldAlertID: structpb.NewStringValue(outcome.ID),
			FieldKind:    structpb.NewStringValue(string(outcome.Kind)),
		},
	}, nil
}

// StartMonitoring arms monitoring.
func (s *Server) StartMonitoring(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.service.StartMonitoring(ctx)

	return statusMessage("monitoring started"), nil
}

// StopMonitoring disarms monitoring.
func (s *Server) StopMonitoring(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.service.StopMonitoring(ctx)

	return statusMessage("monitoring stopped"), nil
}

// GetStatus returns the current liveness snapshot.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return statusResponse(s.service.Status(ctx)), nil
}
