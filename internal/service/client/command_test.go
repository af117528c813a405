package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/emergency-beacon/internal/config"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

func ptr(v float64) *float64 { return &v }

// TestOptionalCoordinates covers absent, complete and partial positions.
func TestOptionalCoordinates(t *testing.T) {
	t.Parallel()

	coords, err := optionalCoordinates(new(Options))
	require.NoError(t, err)
	require.Nil(t, coords)

	coords, err = optionalCoordinates(&Options{Latitude: ptr(40.4), Longitude: ptr(-3.7)})
	require.NoError(t, err)
	require.Equal(t, &domain.Coordinates{Latitude: 40.4, Longitude: -3.7}, coords)

	_, err = optionalCoordinates(&Options{Latitude: ptr(40.4)})
	require.ErrorIs(t, err, domain.ErrCoordinatesRequired)
}

// TestLoadSettings checks the missing-file fallback and the address override.
func TestLoadSettings(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := loadSettings(&Options{ConfigPath: missing})
	require.Error(t, err)

	cfg, err := loadSettings(&Options{ConfigPath: missing, ServerAddress: "127.0.0.1:50051"})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:50051", cfg.GRPCAddress)
	require.Equal(t, config.DefaultTimeout, cfg.CallTimeout)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, &config.Config{GRPCAddress: "127.0.0.1:7000"}))

	cfg, err = loadSettings(&Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", cfg.GRPCAddress)

	cfg, err = loadSettings(&Options{ConfigPath: path, ServerAddress: "127.0.0.1:8000"})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8000", cfg.GRPCAddress)
}

// TestRunHeartbeat_RejectsLongInterval ensures the client never beats slower than the threshold.
func TestRunHeartbeat_RejectsLongInterval(t *testing.T) {
	t.Parallel()

	err := RunHeartbeat(context.Background(), &Options{
		ConfigPath:    filepath.Join(t.TempDir(), "absent.yaml"),
		ServerAddress: "127.0.0.1:1",
		Interval:      config.DefaultStalenessThreshold,
	})
	require.ErrorIs(t, err, errIntervalTooLong)
}

// TestRunAlert_RequiresCoordinates ensures no call is made without a position.
func TestRunAlert_RequiresCoordinates(t *testing.T) {
	t.Parallel()

	err := RunAlert(context.Background(), &Options{
		ConfigPath:    filepath.Join(t.TempDir(), "absent.yaml"),
		ServerAddress: "127.0.0.1:1",
		Latitude:      ptr(1),
	}, nil)
	require.ErrorIs(t, err, domain.ErrCoordinatesRequired)
}

// TestFormatStatus renders armed and empty snapshots.
func TestFormatStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	text := formatStatus(&domain.Snapshot{
		LastHeartbeatAt: now.Add(-90 * time.Second),
		MonitoringArmed: true,
		LastKnownLocation: &domain.Location{
			Coordinates: domain.Coordinates{Latitude: 40.4168, Longitude: -3.7038},
			ObservedAt:  now.Add(-90 * time.Second),
		},
	}, now)

	require.Contains(t, text, "monitoring: armed")
	require.Contains(t, text, "(1m30s ago)")
	require.Contains(t, text, "last location: 40.4168, -3.7038")

	text = formatStatus(new(domain.Snapshot), now)
	require.Contains(t, text, "monitoring: disarmed")
	require.Contains(t, text, "last heartbeat: <unknown>")
	require.Contains(t, text, "last location: <none>")
}
