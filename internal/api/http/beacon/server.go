package beacon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/emergency-beacon/internal/alert"
	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
	"github.com/oshokin/emergency-beacon/internal/logger"
)

// maxRequestBytes caps request bodies; payloads are a few coordinates at most.
const maxRequestBytes = 64 << 10

// Messages returned to browser clients.
const (
	msgCoordinatesMissing = "Coordenadas no proporcionadas"
	msgAlertSent          = "Alerta enviada correctamente"
	msgAlertFailed        = "Error al enviar la alerta"
	msgInvalidJSON        = "invalid json"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	RecordHeartbeat(ctx context.Context, coords *domain.Coordinates)
	StartMonitoring(ctx context.Context)
	StopMonitoring(ctx context.Context)
	SendAlert(ctx context.Context, coords domain.Coordinates, kind domain.AlertKind) *alert.Outcome
	Status(ctx context.Context) *domain.Snapshot
}

// Server serves the beacon HTTP API.
type Server struct {
	// service provides the business logic for beacon operations.
	service Service

	// gatherer backs the /metrics endpoint; nil disables it.
	gatherer prometheus.Gatherer
}

// NewServer creates an HTTP server over service. A nil gatherer leaves
// /metrics unregistered.
func NewServer(service Service, gatherer prometheus.Gatherer) *Server {
	return &Server{
		service:  service,
		gatherer: gatherer,
	}
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	return mux
}

// RegisterRoutes adds the beacon routes to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /heartbeat", s.heartbeat)
	mux.HandleFunc("POST /send_emergency_alert", s.sendEmergencyAlert)
	mux.HandleFunc("POST /start_monitoring", s.startMonitoring)
	mux.HandleFunc("POST /stop_monitoring", s.stopMonitoring)
	mux.HandleFunc("GET /status", s.status)
	mux.HandleFunc("GET /healthz", s.health)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// coordinatesRequest keeps components raw so a bad value does not fail the whole body.
type coordinatesRequest struct {
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
}

// coordinates returns nil and no error when neither component was sent.
func (c coordinatesRequest) coordinates() (*domain.Coordinates, error) {
	return domain.CoordinatesFromJSON(c.Latitude, c.Longitude)
}

type alertRequest struct {
	coordinatesRequest

	Type string `json:"type"`
}

type locationResponse struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ObservedAt time.Time `json:"observed_at"`
}

type statusResponse struct {
	Armed           bool              `json:"armed"`
	LastHeartbeatAt *time.Time        `json:"last_heartbeat_at,omitempty"`
	LastLocation    *locationResponse `json:"last_location,omitempty"`
}

// decodeBody decodes an optional JSON body into dst. An empty body is allowed.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func (s *Server) heartbeat(w http.ResponseWriter, r *http.Request) {
	var req coordinatesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)

		return
	}

	coords, err := req.coordinates()
	if err != nil {
		logger.DebugKV(r.Context(), "Ignoring heartbeat coordinates", "error", err)
	}

	s.service.RecordHeartbeat(r.Context(), coords)

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) sendEmergencyAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)

		return
	}

	coords, err := req.coordinates()
	if coords == nil && (err == nil || errors.Is(err, domain.ErrCoordinatesRequired)) {
		writeError(w, http.StatusBadRequest, msgCoordinatesMissing)

		return
	}

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	kind, err := domain.ParseAlertKind(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	outcome := s.service.SendAlert(r.Context(), *coords, kind)
	if outcome == nil || !outcome.Sent {
		writeError(w, http.StatusInternalServerError, msgAlertFailed)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  msgAlertSent,
		"alert_id": outcome.ID,
		"kind":     outcome.Kind,
	})
}

func (s *Server) startMonitoring(w http.ResponseWriter, r *http.Request) {
	s.service.StartMonitoring(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{"status": "monitoring started"})
}

func (s *Server) stopMonitoring(w http.ResponseWriter, r *http.Request) {
	s.service.StopMonitoring(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{"status": "monitoring stopped"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	snapshot := s.service.Status(r.Context())

	resp := statusResponse{
		Armed: snapshot.MonitoringArmed,
	}

	if !snapshot.LastHeartbeatAt.IsZero() {
		heartbeatAt := snapshot.LastHeartbeatAt.UTC()
		resp.LastHeartbeatAt = &heartbeatAt
	}

	if loc := snapshot.LastKnownLocation; loc != nil {
		resp.LastLocation = &locationResponse{
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			ObservedAt: loc.ObservedAt.UTC(),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
