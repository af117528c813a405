// Package beacon implements the gRPC transport for the safety beacon.
//
// The service is registered through a hand-written descriptor whose messages
// are protobuf well-known types: structpb.Struct carries request and response
// fields by name and emptypb.Empty stands in for payload-less calls. A
// matching client stub lives next to the server.
package beacon
