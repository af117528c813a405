package beacon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/emergency-beacon/internal/alert"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/metrics"
)

// fakeService implements Service for unit testing the HTTP transport.
type fakeService struct {
	mu sync.Mutex

	heartbeats []*domain.Coordinates
	alerts     []domain.Coordinates
	sent       bool
	snapshot   domain.Snapshot
}

func (f *fakeService) RecordHeartbeat(_ context.Context, coords *domain.Coordinates) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.heartbeats = append(f.heartbeats, coords)
}

func (f *fakeService) StartMonitoring(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.snapshot.MonitoringArmed = true
}

func (f *fakeService) StopMonitoring(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.snapshot.MonitoringArmed = false
}

func (f *fakeService) SendAlert(_ context.Context, coords domain.Coordinates, kind domain.AlertKind) *alert.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.alerts = append(f.alerts, coords)

	return &alert.Outcome{ID: "alert-42", Kind: kind, Sent: f.sent}
}

func (f *fakeService) Status(context.Context) *domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.snapshot.Clone()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}

	return rec, decoded
}

// TestHeartbeat covers located, bare and malformed heartbeats.
func TestHeartbeat(t *testing.T) {
	t.Parallel()

	svc := &fakeService{sent: true}
	h := NewServer(svc, nil).Handler()

	rec, body := do(t, h, http.MethodPost, "/heartbeat", `{"latitude":40.4168,"longitude":-3.7038}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])

	rec, _ = do(t, h, http.MethodPost, "/heartbeat", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/heartbeat", `{"latitude":120,"longitude":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// A non-numeric coordinate drops the location, the heartbeat still counts.
	rec, body = do(t, h, http.MethodPost, "/heartbeat", `{"latitude":"abc","longitude":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])

	rec, _ = do(t, h, http.MethodPost, "/heartbeat", `{"latitude":"1.5","longitude":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/heartbeat", `{"latitude":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, msgInvalidJSON, body["error"])

	rec, _ = do(t, h, http.MethodGet, "/heartbeat", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	require.Len(t, svc.heartbeats, 5)
	require.Equal(t, &domain.Coordinates{Latitude: 40.4168, Longitude: -3.7038}, svc.heartbeats[0])
	require.Nil(t, svc.heartbeats[1])
	require.Nil(t, svc.heartbeats[2])
	require.Nil(t, svc.heartbeats[3])
	require.Equal(t, &domain.Coordinates{Latitude: 1.5, Longitude: 2}, svc.heartbeats[4])
}

// TestSendEmergencyAlert checks validation, success and delivery failure.
func TestSendEmergencyAlert(t *testing.T) {
	t.Parallel()

	svc := &fakeService{sent: true}
	h := NewServer(svc, nil).Handler()

	rec, body := do(t, h, http.MethodPost, "/send_emergency_alert", `{"latitude":40.4}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, msgCoordinatesMissing, body["error"])

	rec, body = do(t, h, http.MethodPost, "/send_emergency_alert", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, msgCoordinatesMissing, body["error"])

	rec, body = do(t, h, http.MethodPost, "/send_emergency_alert", `{"latitude":"abc","longitude":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "not a number")

	rec, _ = do(t, h, http.MethodPost, "/send_emergency_alert", `{"latitude":1,"longitude":1,"type":"drill"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/send_emergency_alert", `{"latitude":0,"longitude":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, msgAlertSent, body["message"])
	require.Equal(t, "alert-42", body["alert_id"])
	require.Equal(t, "manual", body["kind"])

	svc.mu.Lock()
	svc.sent = false
	svc.mu.Unlock()

	rec, body = do(t, h, http.MethodPost, "/send_emergency_alert", `{"latitude":1,"longitude":2,"type":"auto"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, msgAlertFailed, body["error"])

	require.Equal(t, []domain.Coordinates{{}, {Latitude: 1, Longitude: 2}}, svc.alerts)
}

// TestMonitoringAndStatus toggles monitoring and reads the status view.
func TestMonitoringAndStatus(t *testing.T) {
	t.Parallel()

	heartbeatAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := &fakeService{
		snapshot: domain.Snapshot{
			LastHeartbeatAt: heartbeatAt,
			LastKnownLocation: &domain.Location{
				Coordinates: domain.Coordinates{Latitude: 1.5, Longitude: 2.5},
				ObservedAt:  heartbeatAt,
			},
		},
	}
	h := NewServer(svc, nil).Handler()

	rec, body := do(t, h, http.MethodPost, "/start_monitoring", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "monitoring started", body["status"])

	_, body = do(t, h, http.MethodGet, "/status", "")
	require.Equal(t, true, body["armed"])
	require.Equal(t, "2024-03-01T12:00:00Z", body["last_heartbeat_at"])

	location, ok := body["last_location"].(map[string]any)
	require.True(t, ok)
	require.InDelta(t, 1.5, location["latitude"], 0)

	rec, body = do(t, h, http.MethodPost, "/stop_monitoring", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "monitoring stopped", body["status"])

	_, body = do(t, h, http.MethodGet, "/status", "")
	require.Equal(t, false, body["armed"])
}

// TestHealthAndMetrics checks the probe and the scrape endpoint.
func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveState(&domain.Snapshot{MonitoringArmed: true})

	h := NewServer(&fakeService{}, reg).Handler()

	rec, _ := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec, _ = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "beacon_monitoring_armed 1")

	rec, _ = do(t, NewServer(&fakeService{}, nil).Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
