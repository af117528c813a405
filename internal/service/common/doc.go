// Package common holds helpers shared by the beacon client commands.
//
// It provides a gRPC client wrapper with per-call timeouts that tags every
// call with the caller identity (user@host) so the server can attribute
// heartbeats and alerts in its logs.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
