package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

// TestComposer_Automatic renders the disconnection template with the last connection line.
func TestComposer_Automatic(t *testing.T) {
	t.Parallel()

	c := NewComposer(WithLocation(time.UTC))
	msg := c.Compose(&domain.AlertContext{
		Kind:           domain.AlertKindAutomatic,
		Coordinates:    domain.Coordinates{Latitude: 19.4, Longitude: -99.1},
		Address:        "Zócalo",
		Timestamp:      time.Date(2024, 5, 1, 12, 2, 1, 0, time.UTC),
		LastConnection: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})

	require.Contains(t, msg, AutomaticMarker)
	require.Contains(t, msg, "DISPOSITIVO DESCONECTADO INESPERADAMENTE")
	require.Contains(t, msg, "Fecha y hora: 2024-05-01 12:02:01")
	require.Contains(t, msg, "Última ubicación conocida: Zócalo")
	require.Contains(t, msg, "Coordenadas: 19.4, -99.1")
	require.Contains(t, msg, "Ver en mapa: https://maps.google.com/?q=19.4,-99.1")
	require.Contains(t, msg, "Última conexión: 2024-05-01 12:00:00")
	require.NotContains(t, msg, ManualMarker)
}

// TestComposer_AutomaticWithoutLastConnection omits the optional line.
func TestComposer_AutomaticWithoutLastConnection(t *testing.T) {
	t.Parallel()

	msg := NewComposer().Compose(&domain.AlertContext{
		Kind:        domain.AlertKindAutomatic,
		Coordinates: domain.Coordinates{Latitude: 1, Longitude: 2},
		Address:     "Lat: 1, Lon: 2",
		Timestamp:   time.Now(),
	})

	require.Contains(t, msg, AutomaticMarker)
	require.NotContains(t, msg, "Última conexión")
}

// TestComposer_Manual renders the manual template and never a last connection line.
func TestComposer_Manual(t *testing.T) {
	t.Parallel()

	msg := NewComposer(WithLocation(time.UTC)).Compose(&domain.AlertContext{
		Kind:           domain.AlertKindManual,
		Coordinates:    domain.Coordinates{Latitude: 10, Longitude: 20},
		Address:        "Lat: 10, Lon: 20",
		Timestamp:      time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		LastConnection: time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC),
	})

	require.Contains(t, msg, ManualMarker)
	require.Contains(t, msg, "Ubicación: Lat: 10, Lon: 20")
	require.Contains(t, msg, "Coordenadas: 10, 20")
	require.Contains(t, msg, "https://maps.google.com/?q=10,20")
	require.Contains(t, msg, "alerta manual")
	require.NotContains(t, msg, "Última conexión")
	require.NotContains(t, msg, AutomaticMarker)
}

// TestComposer_ASCIIOnly folds accents and removes emoji.
func TestComposer_ASCIIOnly(t *testing.T) {
	t.Parallel()

	msg := NewComposer(WithASCIIOnly(true)).Compose(&domain.AlertContext{
		Kind:        domain.AlertKindAutomatic,
		Coordinates: domain.Coordinates{Latitude: 19.4, Longitude: -99.1},
		Address:     "Zócalo, Ciudad de México",
		Timestamp:   time.Now(),
	})

	for _, r := range msg {
		require.LessOrEqual(t, r, rune(127))
	}

	require.True(t, strings.HasPrefix(msg, "ALERTA AUTOMATICA - POSIBLE EMERGENCIA\n"))
	require.Contains(t, msg, "Ultima ubicacion conocida: Zocalo, Ciudad de Mexico")
}
