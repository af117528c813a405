// Package natsbeat carries beacon heartbeats over a NATS subject.
//
// Devices that already hold a NATS connection publish small JSON payloads
// and the server feeds them into the same liveness tracker as the gRPC and
// HTTP heartbeats.
package natsbeat
