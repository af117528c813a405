package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oshokin/emergency-beacon/internal/config"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/ingress/natsbeat"
	"github.com/oshokin/emergency-beacon/internal/logger"
	"github.com/oshokin/emergency-beacon/internal/service/common"
)

// DefaultHeartbeatInterval is how often the heartbeat command reports in.
const DefaultHeartbeatInterval = 30 * time.Second

// Options configures the client commands.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Latitude and Longitude are the fixed position to report, nil when unknown.
	Latitude  *float64
	Longitude *float64

	// AlertType is sent with manual alerts: empty, "manual" or "auto".
	AlertType string

	// Interval between heartbeats.
	Interval time.Duration

	// Count stops the heartbeat command after that many beats; zero runs until canceled.
	Count int

	// UseNATS publishes heartbeats on the configured NATS subject instead of gRPC.
	UseNATS bool
}

var (
	errIntervalTooLong = errors.New("heartbeat interval must be shorter than the staleness threshold")
	errNATSURLRequired = errors.New("nats.url must be configured to publish heartbeats over NATS")
)

// RunHeartbeat sends heartbeats until ctx is canceled or Count beats were sent.
// Failed beats are logged and the loop keeps going.
//
//nolint:cyclop // Two transports and a bounded loop.
func RunHeartbeat(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "beacon-heartbeat")

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	coords, err := optionalCoordinates(opts)
	if err != nil {
		return err
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	if interval >= cfg.StalenessThreshold {
		return fmt.Errorf("%w: %s >= %s", errIntervalTooLong, interval, cfg.StalenessThreshold)
	}

	beat, closeFn, err := heartbeatSender(ctx, cfg, opts)
	if err != nil {
		return err
	}

	defer closeFn()

	logger.InfoKV(ctx, "Sending heartbeats",
		"server_address", cfg.GRPCAddress,
		"interval", interval,
		"over_nats", opts.UseNATS,
		"located", coords != nil)

	sent := 0

	attempt := func() bool {
		if err := beat(ctx, coords); err != nil {
			logger.ErrorKV(ctx, "Heartbeat failed", "error", err)
		} else {
			logger.Debug(ctx, "Heartbeat sent")
		}

		sent++

		return opts.Count > 0 && sent >= opts.Count
	}

	// Beat immediately before starting the ticker.
	if attempt() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if attempt() {
				return nil
			}
		}
	}
}

// heartbeatSender returns the function that sends one heartbeat and a cleanup func.
func heartbeatSender(
	ctx context.Context,
	cfg *config.Config,
	opts *Options,
) (func(context.Context, *domain.Coordinates) error, func(), error) {
	if opts.UseNATS {
		if cfg.NATS.URL == "" {
			return nil, nil, errNATSURLRequired
		}

		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("beacon-client"), nats.Timeout(cfg.CallTimeout))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATS.URL, err)
		}

		publisher := natsbeat.NewPublisher(nc, cfg.NATS.HeartbeatSubject)

		send := func(ctx context.Context, coords *domain.Coordinates) error {
			callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
			defer cancel()

			return publisher.Publish(callCtx, natsbeat.NewMessage(coords, time.Now()))
		}

		return send, nc.Close, nil
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return client.Heartbeat, func() { _ = client.Close() }, nil
}

// RunAlert sends one manual alert and writes the server confirmation to w.
func RunAlert(ctx context.Context, opts *Options, w io.Writer) error {
	ctx = logger.WithName(ctx, "beacon-alert")

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	coords, err := domain.CoordinatesFrom(opts.Latitude, opts.Longitude)
	if err != nil {
		return err
	}

	if _, err = domain.ParseAlertKind(opts.AlertType); err != nil {
		return err
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	result, err := client.SendAlert(ctx, *coords, opts.AlertType)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alert accepted", "alert_id", result.ID, "kind", result.Kind)

	_, err = fmt.Fprintf(w, "%s (id: %s, kind: %s)\n", result.Message, result.ID, result.Kind)

	return err
}

// RunMonitoring arms or disarms the automatic alert.
func RunMonitoring(ctx context.Context, opts *Options, armed bool, w io.Writer) error {
	ctx = logger.WithName(ctx, "beacon-monitoring")

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	var text string
	if armed {
		text, err = client.StartMonitoring(ctx)
	} else {
		text, err = client.StopMonitoring(ctx)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, text)

	return err
}

// RunStatus prints the server liveness snapshot.
func RunStatus(ctx context.Context, opts *Options, w io.Writer) error {
	ctx = logger.WithName(ctx, "beacon-status")

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.Status(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, formatStatus(snapshot, time.Now()))

	return err
}

// loadSettings reads the config file. A missing file is tolerated when the
// server address is given on the command line.
func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && opts.ServerAddress != "":
		cfg = &config.Config{GRPCAddress: opts.ServerAddress}
		config.ApplyEnv(cfg, os.Getenv)

		if err = config.Validate(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if opts.ServerAddress != "" {
		cfg.GRPCAddress = opts.ServerAddress
	}

	return cfg, nil
}

func dial(ctx context.Context, cfg *config.Config) (*common.Client, error) {
	clientOpts := []common.Option{common.WithCallTimeout(cfg.CallTimeout)}

	if actor, err := common.DetectActor(); err == nil {
		clientOpts = append(clientOpts, common.WithActor(actor))
	} else {
		logger.DebugKV(ctx, "Caller identity unavailable", "error", err)
	}

	return common.Dial(ctx, cfg.GRPCAddress, clientOpts...)
}

// optionalCoordinates returns nil when no position was given and an error
// when only half of it was.
func optionalCoordinates(opts *Options) (*domain.Coordinates, error) {
	if opts.Latitude == nil && opts.Longitude == nil {
		return nil, nil //nolint:nilnil // No fixed position is a valid choice.
	}

	return domain.CoordinatesFrom(opts.Latitude, opts.Longitude)
}

// formatStatus renders a snapshot for the terminal.
func formatStatus(snapshot *domain.Snapshot, now time.Time) string {
	var b strings.Builder

	state := "disarmed"
	if snapshot.MonitoringArmed {
		state = "armed"
	}

	fmt.Fprintf(&b, "monitoring: %s\n", state)

	if snapshot.LastHeartbeatAt.IsZero() {
		b.WriteString("last heartbeat: <unknown>\n")
	} else {
		fmt.Fprintf(&b, "last heartbeat: %s (%s ago)\n",
			snapshot.LastHeartbeatAt.Format(time.RFC3339),
			snapshot.Silence(now).Truncate(time.Second))
	}

	if loc := snapshot.LastKnownLocation; loc != nil {
		fmt.Fprintf(&b, "last location: %s at %s\n", loc.Coordinates.String(), loc.ObservedAt.Format(time.RFC3339))
	} else {
		b.WriteString("last location: <none>\n")
	}

	return b.String()
}
