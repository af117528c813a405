// Package client implements the beacon-client commands.
//
// The heartbeat command keeps the server's liveness record fresh on a fixed
// interval, over gRPC or a NATS subject. The remaining commands send a manual
// alert, arm or disarm monitoring, and print the server status.
package client
