package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/emergency-beacon/internal/alert"
	grpcapi "github.com/oshokin/emergency-beacon/internal/api/grpc/beacon"
	httpapi "github.com/oshokin/emergency-beacon/internal/api/http/beacon"
	"github.com/oshokin/emergency-beacon/internal/config"
	"github.com/oshokin/emergency-beacon/internal/geocoding"
	"github.com/oshokin/emergency-beacon/internal/ingress/natsbeat"
	"github.com/oshokin/emergency-beacon/internal/liveness"
	"github.com/oshokin/emergency-beacon/internal/logger"
	"github.com/oshokin/emergency-beacon/internal/metrics"
	"github.com/oshokin/emergency-beacon/internal/monitor"
	"github.com/oshokin/emergency-beacon/internal/notifier"
	"github.com/oshokin/emergency-beacon/internal/version"
)

// Options controls the beacon-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HTTPAddress provides an optional listen address override for the HTTP server.
	HTTPAddress string
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// errNATSRequired is returned when the nats channel is selected without a NATS URL.
	errNATSRequired = errors.New("notifier channel nats requires nats.url")
)

// Run starts the beacon server and blocks until context is canceled or a listener fails.
// Loads configuration first, then wires the tracker, monitor loop and transports.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "beacon-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.GRPCAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	httpAddress := settings.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	nc, err := connectNATS(ctx, settings)
	if err != nil {
		return err
	}

	if nc != nil {
		defer nc.Close()
	}

	app, err := build(settings, nc)
	if err != nil {
		return err
	}

	// Setup TCP listeners before anything starts so bind errors surface immediately.
	lc := net.ListenConfig{}

	grpcListener, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	var httpListener net.Listener

	if httpAddress != config.HTTPDisabled {
		httpListener, err = lc.Listen(ctx, "tcp", httpAddress)
		if err != nil {
			_ = grpcListener.Close()

			return fmt.Errorf("listen on %s: %w", httpAddress, err)
		}
	}

	logger.InfoKV(ctx, "Beacon server listening",
		"version", version.Short(),
		"grpc_address", grpcListener.Addr().String(),
		"http_address", httpAddress,
		"notifier", app.notifier.Name(),
		"staleness_threshold", settings.StalenessThreshold,
		"poll_interval", settings.PollInterval)

	return app.serve(ctx, grpcListener, httpListener)
}

// app holds every wired component of one server process.
type app struct {
	settings *config.Config
	registry *prometheus.Registry
	notifier *notifier.Notifier
	service  *service
	loop     *monitor.Loop
	ingress  *natsbeat.Subscriber
}

// build wires the components described by settings. nc may be nil.
func build(settings *config.Config, nc *nats.Conn) (*app, error) {
	if settings.Notifier.Channel == config.ChannelNATS && nc == nil {
		return nil, errNATSRequired
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(registry)

	sender, err := notifier.FromConfig(&settings.Notifier, nc, settings.CallTimeout)
	if err != nil {
		return nil, fmt.Errorf("build notifier: %w", err)
	}

	var backend geocoding.Lookuper
	if !settings.Geocoder.Disabled {
		backend = &geocoding.Nominatim{
			Endpoint:  settings.Geocoder.Endpoint,
			UserAgent: settings.Geocoder.UserAgent,
		}
	}

	composer := alert.NewComposer(
		alert.WithASCIIOnly(settings.Composer.ASCIIOnly),
		alert.WithLocation(settings.Composer.Location()),
	)

	dispatcher := alert.NewDispatcher(
		geocoding.NewClient(backend, settings.CallTimeout),
		sender,
		composer,
		alert.WithMetrics(m),
	)

	tracker := liveness.New(liveness.WithObserver(m))

	a := &app{
		settings: settings,
		registry: registry,
		notifier: sender,
		service:  newService(tracker, dispatcher, m),
		loop: monitor.New(tracker, dispatcher, monitor.Options{
			PollInterval:       settings.PollInterval,
			StalenessThreshold: settings.StalenessThreshold,
			Metrics:            m,
		}),
	}

	if nc != nil && settings.NATS.HeartbeatSubject != "" {
		a.ingress = natsbeat.NewSubscriber(nc, settings.NATS.HeartbeatSubject, a.service)
	}

	return a, nil
}

// serve runs every component until ctx is canceled or one of them fails,
// then shuts the rest down gracefully.
func (a *app) serve(ctx context.Context, grpcListener, httpListener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create and configure gRPC server with the beacon and health services.
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.LoggingInterceptor(ctx)))
	grpcapi.RegisterBeaconServiceServer(grpcServer, grpcapi.NewServer(a.service))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	var httpServer *http.Server
	if httpListener != nil {
		//nolint:exhaustruct // Defaults are fine for the remaining fields.
		httpServer = &http.Server{
			Handler:           httpapi.NewServer(a.service, a.registry).Handler(),
			ReadHeaderTimeout: a.settings.CallTimeout,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		cancel()
	}

	wg.Go(func() {
		_ = a.loop.Run(ctx) //nolint:errcheck // Run only returns when ctx is done.
	})

	if a.ingress != nil {
		wg.Go(func() {
			if err := a.ingress.Run(ctx); err != nil {
				fail(fmt.Errorf("heartbeat ingress: %w", err))
			}
		})
	}

	wg.Go(func() {
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			fail(fmt.Errorf("serve gRPC: %w", err))
		}
	})

	if httpServer != nil {
		wg.Go(func() {
			if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fail(fmt.Errorf("serve HTTP: %w", err))
			}
		})
	}

	healthServer.SetServingStatus(grpcapi.ServiceName, healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()

	logger.Info(ctx, "Shutting down beacon server")
	healthServer.Shutdown()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), a.settings.CallTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "HTTP shutdown incomplete", "error", err)
		}

		shutdownCancel()
	}

	grpcServer.GracefulStop()
	wg.Wait()

	logger.Info(ctx, "Beacon server stopped")

	return firstErr
}

// connectNATS dials NATS when a URL is configured.
func connectNATS(ctx context.Context, settings *config.Config) (*nats.Conn, error) {
	if settings.NATS.URL == "" {
		return nil, nil //nolint:nilnil // NATS is optional.
	}

	nc, err := nats.Connect(settings.NATS.URL,
		nats.Name("emergency-beacon"),
		nats.Timeout(settings.CallTimeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WarnKV(ctx, "NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.InfoKV(ctx, "NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", settings.NATS.URL, err)
	}

	return nc, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	host, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Loopback addresses stay as they are so tests and local setups bind privately.
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return configAddr, nil
	}

	return ":" + port, nil
}
