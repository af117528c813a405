package beacon

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// BeaconServiceClient is the client API for the beacon service.
type BeaconServiceClient interface {
	Heartbeat(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SendEmergencyAlert(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	StartMonitoring(ctx context.Context, req *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	StopMonitoring(ctx context.Context, req *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetStatus(ctx context.Context, req *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type beaconServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewBeaconServiceClient returns a client stub bound to cc.
//
//nolint:ireturn // Mirrors generated client constructors.
func NewBeaconServiceClient(cc grpc.ClientConnInterface) BeaconServiceClient {
	return &beaconServiceClient{cc: cc}
}

func (c *beaconServiceClient) Heartbeat(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, HeartbeatMethod, req, opts)
}

func (c *beaconServiceClient) SendEmergencyAlert(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, SendEmergencyAlertMethod, req, opts)
}

func (c *beaconServiceClient) StartMonitoring(
	ctx context.Context,
	req *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, StartMonitoringMethod, req, opts)
}

func (c *beaconServiceClient) StopMonitoring(
	ctx context.Context,
	req *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, StopMonitoringMethod, req, opts)
}

func (c *beaconServiceClient) GetStatus(
	ctx context.Context,
	req *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, GetStatusMethod, req, opts)
}

func invoke(
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	req any,
	opts []grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
