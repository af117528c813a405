package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/emergency-beacon/internal/alert"
	"github.com/oshokin/emergency-beacon/internal/config"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/liveness"
	"github.com/oshokin/emergency-beacon/internal/metrics"
)

// staticGeocoder resolves every coordinate to the same address.
type staticGeocoder struct{}

func (staticGeocoder) Resolve(context.Context, domain.Coordinates) string { return "Puerta del Sol, Madrid" }

// recordingSender stores every message and reports a fixed outcome.
type recordingSender struct {
	mu       sync.Mutex
	sent     bool
	messages []string
}

func (r *recordingSender) Send(_ context.Context, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, message)

	return r.sent
}

// manualClock is a settable time source.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestService(sent bool) (*service, *recordingSender, *manualClock) {
	clock := &manualClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	sender := &recordingSender{sent: sent}
	tracker := liveness.New(liveness.WithClock(clock.Now))
	dispatcher := alert.NewDispatcher(staticGeocoder{}, sender, nil, alert.WithClock(clock.Now))

	return newService(tracker, dispatcher, nil), sender, clock
}

// TestService_HeartbeatAndMonitoring verifies heartbeats re-arm and start/stop toggle the flag.
func TestService_HeartbeatAndMonitoring(t *testing.T) {
	t.Parallel()

	s, _, clock := newTestService(true)
	ctx := context.Background()

	require.False(t, s.Status(ctx).MonitoringArmed)

	s.StartMonitoring(ctx)
	require.True(t, s.Status(ctx).MonitoringArmed)

	s.StopMonitoring(ctx)
	require.False(t, s.Status(ctx).MonitoringArmed)

	clock.Advance(10 * time.Second)
	s.RecordHeartbeat(ctx, &domain.Coordinates{Latitude: 40.4168, Longitude: -3.7038})

	status := s.Status(ctx)
	require.True(t, status.MonitoringArmed)
	require.Equal(t, clock.Now(), status.LastHeartbeatAt)
	require.NotNil(t, status.LastKnownLocation)
	require.Equal(t, clock.Now(), status.LastKnownLocation.ObservedAt)

	// A bare heartbeat keeps the previous location.
	clock.Advance(10 * time.Second)
	s.RecordHeartbeat(ctx, nil)

	status = s.Status(ctx)
	require.Equal(t, clock.Now(), status.LastHeartbeatAt)
	require.InDelta(t, 40.4168, status.LastKnownLocation.Latitude, 0)
	require.Equal(t, clock.Now().Add(-10*time.Second), status.LastKnownLocation.ObservedAt)
}

// requireGauges compares the armed and last location gauges with the registry.
func requireGauges(t *testing.T, reg prometheus.Gatherer, armed int, lastLocation string) {
	t.Helper()

	expected := `
# HELP beacon_last_location_timestamp_seconds Unix time of the last heartbeat that carried coordinates
# TYPE beacon_last_location_timestamp_seconds gauge
beacon_last_location_timestamp_seconds ` + lastLocation + `
# HELP beacon_monitoring_armed 1 while a heartbeat silence will fire an automatic alert
# TYPE beacon_monitoring_armed gauge
beacon_monitoring_armed ` + strconv.Itoa(armed) + `
`

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"beacon_monitoring_armed", "beacon_last_location_timestamp_seconds"))
}

// TestService_Gauges keeps the gauges in step with the tracker.
func TestService_Gauges(t *testing.T) {
	t.Parallel()

	clock := &manualClock{now: time.Unix(1700000000, 0).UTC()}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tracker := liveness.New(liveness.WithClock(clock.Now), liveness.WithObserver(m))
	dispatcher := alert.NewDispatcher(staticGeocoder{}, &recordingSender{sent: true}, nil, alert.WithClock(clock.Now))
	s := newService(tracker, dispatcher, m)
	ctx := context.Background()

	requireGauges(t, reg, 0, "0")

	s.RecordHeartbeat(ctx, &domain.Coordinates{Latitude: 40.4168, Longitude: -3.7038})
	requireGauges(t, reg, 1, "1.7e+09")

	s.StopMonitoring(ctx)
	requireGauges(t, reg, 0, "1.7e+09")

	// A bare heartbeat re-arms without moving the location timestamp.
	clock.Advance(30 * time.Second)
	s.RecordHeartbeat(ctx, nil)
	requireGauges(t, reg, 1, "1.7e+09")

	// Firing disarms inside the tracker, the gauge follows.
	clock.Advance(3 * time.Minute)

	_, verdict := tracker.Evaluate(time.Minute)
	require.Equal(t, liveness.VerdictFired, verdict)
	requireGauges(t, reg, 0, "1.7e+09")

	s.StartMonitoring(ctx)
	requireGauges(t, reg, 1, "1.7e+09")
}

// TestService_SendAlert verifies manual alerts do not touch liveness state.
func TestService_SendAlert(t *testing.T) {
	t.Parallel()

	s, sender, _ := newTestService(true)
	ctx := context.Background()

	s.StartMonitoring(ctx)
	before := s.Status(ctx)

	outcome := s.SendAlert(ctx, domain.Coordinates{Latitude: 40.4168, Longitude: -3.7038}, domain.AlertKindManual)
	require.True(t, outcome.Sent)
	require.NotEmpty(t, outcome.ID)
	require.Contains(t, outcome.Message, alert.ManualMarker)
	require.Contains(t, outcome.Message, "Puerta del Sol, Madrid")
	require.Len(t, sender.messages, 1)

	require.Equal(t, before, s.Status(ctx))

	sender.sent = false

	outcome = s.SendAlert(ctx, domain.Coordinates{}, domain.AlertKindAutomatic)
	require.False(t, outcome.Sent)
	require.Contains(t, outcome.Message, alert.AutomaticMarker)
}

// TestResolveListenAddress covers overrides, port extraction and loopback binds.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("beacon.example.com:50051", "")
	require.NoError(t, err)
	require.Equal(t, ":50051", addr)

	addr, err = resolveListenAddress("beacon.example.com:50051", ":9090")
	require.NoError(t, err)
	require.Equal(t, ":9090", addr)

	addr, err = resolveListenAddress("127.0.0.1:6000", "")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6000", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

func testSettings(t *testing.T) *config.Config {
	t.Helper()

	settings := &config.Config{
		GRPCAddress: "127.0.0.1:0",
		Geocoder:    config.GeocoderConfig{Disabled: true},
		Notifier:    config.NotifierConfig{Channel: config.ChannelLog},
	}
	require.NoError(t, config.Validate(settings))

	return settings
}

// TestBuild checks wiring errors and the optional ingress.
func TestBuild(t *testing.T) {
	t.Parallel()

	a, err := build(testSettings(t), nil)
	require.NoError(t, err)
	require.Nil(t, a.ingress)
	require.Equal(t, config.ChannelLog, a.notifier.Name())

	settings := testSettings(t)
	settings.Notifier.Channel = config.ChannelNATS

	_, err = build(settings, nil)
	require.ErrorIs(t, err, errNATSRequired)
}

// TestServe starts every listener, probes HTTP and shuts down on cancel.
func TestServe(t *testing.T) {
	t.Parallel()

	a, err := build(testSettings(t), nil)
	require.NoError(t, err)

	grpcListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	httpListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- a.serve(ctx, grpcListener, httpListener)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + httpListener.Addr().String() + "/healthz") //nolint:noctx // Test probe.
		if err != nil {
			return false
		}

		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)

		return resp.StatusCode == http.StatusOK && string(body) == "ok"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
