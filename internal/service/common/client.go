//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/emergency-beacon/internal/api/grpc/beacon"
	"github.com/oshokin/emergency-beacon/internal/config"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

// Client wraps the gRPC BeaconService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the beacon server.
	conn *grpc.ClientConn
	// api is the BeaconService client stub.
	api api.BeaconServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor identifies the caller in server logs; empty sends nothing.
	actor string
}

// AlertResult is what the server reports for an accepted manual alert.
type AlertResult struct {
	// ID is the alert identifier assigned by the server.
	ID string
	// Kind is the template the server used.
	Kind domain.AlertKind
	// Message is the human readable confirmation.
	Message string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor tags every call with the given caller identity.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the beacon server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial beacon server: %w", err)
	}

	client := newClient(api.NewBeaconServiceClient(conn), opts...)
	client.conn = conn

	return client, nil
}

// newClient wraps an existing stub.
func newClient(stub api.BeaconServiceClient, opts ...Option) *Client {
	client := &Client{
		api:         stub,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Heartbeat reports that the device is alive, with coordinates when known.
func (c *Client) Heartbeat(ctx context.Context, coords *domain.Coordinates) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Heartbeat(callCtx, api.HeartbeatRequest(coords)); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}

	return nil
}

// SendAlert asks the server to send a manual alert for coords.
// alertType may be empty, "manual" or "auto".
func (c *Client) SendAlert(ctx context.Context, coords domain.Coordinates, alertType string) (*AlertResult, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SendEmergencyAlert(callCtx, api.AlertRequest(coords, alertType))
	if err != nil {
		return nil, fmt.Errorf("send emergency alert: %w", err)
	}

	fields := resp.GetFields()

	return &AlertResult{
		ID:      fields[api.FieldAlertID].GetStringValue(),
		Kind:    domain.AlertKind(fields[api.FieldKind].GetStringValue()),
		Message: fields[api.FieldMessage].GetStringValue(),
	}, nil
}

// StartMonitoring arms the automatic alert and returns the server status text.
func (c *Client) StartMonitoring(ctx context.Context) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.StartMonitoring(callCtx, new(emptypb.Empty))
	if err != nil {
		return "", fmt.Errorf("start monitoring: %w", err)
	}

	return resp.GetFields()[api.FieldStatus].GetStringValue(), nil
}

// StopMonitoring disarms the automatic alert and returns the server status text.
func (c *Client) StopMonitoring(ctx context.Context) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.StopMonitoring(callCtx, new(emptypb.Empty))
	if err != nil {
		return "", fmt.Errorf("stop monitoring: %w", err)
	}

	return resp.GetFields()[api.FieldStatus].GetStringValue(), nil
}

// Status retrieves the server liveness snapshot.
func (c *Client) Status(ctx context.Context) (*domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	snapshot, err := api.SnapshotFromStatus(resp)
	if err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}

	return snapshot, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The caller
// identity travels as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.actor != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, c.actor)
	}

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
