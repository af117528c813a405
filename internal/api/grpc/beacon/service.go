package beacon

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "beacon.v1.BeaconService"

// Full method names.
const (
	HeartbeatMethod          = "/" + ServiceName + "/Heartbeat"
	SendEmergencyAlertMethod = "/" + ServiceName + "/SendEmergencyAlert"
	StartMonitoringMethod    = "/" + ServiceName + "/StartMonitoring"
	StopMonitoringMethod     = "/" + ServiceName + "/StopMonitoring"
	GetStatusMethod          = "/" + ServiceName + "/GetStatus"
)

// BeaconServiceServer is the server API for the beacon service.
type BeaconServiceServer interface {
	Heartbeat(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SendEmergencyAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	StartMonitoring(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	StopMonitoring(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterBeaconServiceServer registers srv on s.
func RegisterBeaconServiceServer(s grpc.ServiceRegistrar, srv BeaconServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are static by nature.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BeaconServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Heartbeat",
			Handler:    unaryHandler(HeartbeatMethod, newStruct, BeaconServiceServer.Heartbeat),
		},
		{
			MethodName: "SendEmergencyAlert",
			Handler:    unaryHandler(SendEmergencyAlertMethod, newStruct, BeaconServiceServer.SendEmergencyAlert),
		},
		{
			MethodName: "StartMonitoring",
			Handler:    unaryHandler(StartMonitoringMethod, newEmpty, BeaconServiceServer.StartMonitoring),
		},
		{
			MethodName: "StopMonitoring",
			Handler:    unaryHandler(StopMonitoringMethod, newEmpty, BeaconServiceServer.StopMonitoring),
		},
		{
			MethodName: "GetStatus",
			Handler:    unaryHandler(GetStatusMethod, newEmpty, BeaconServiceServer.GetStatus),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "beacon/v1/beacon.proto",
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

// unaryHandler adapts a typed server method to grpc.MethodHandler the same
// way protoc-gen-go-grpc output does for each method.
func unaryHandler[Req any](
	fullMethod string,
	newReq func() Req,
	call func(BeaconServiceServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(BeaconServiceServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(Req)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}
