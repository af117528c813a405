package alert

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

const (
	// TimestampLayout is the date format used inside messages.
	TimestampLayout = "2006-01-02 15:04:05"

	// AutomaticMarker heads automatic alert messages.
	AutomaticMarker = "ALERTA AUTOMÁTICA - POSIBLE EMERGENCIA"

	// ManualMarker heads manual alert messages.
	ManualMarker = "ALERTA DE EMERGENCIA"
)

// Composer builds message bodies. It has no side effects and never fails.
type Composer struct {
	// asciiOnly strips accents and symbols from the result.
	asciiOnly bool
	// location is the zone timestamps are rendered in.
	location *time.Location
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithASCIIOnly folds messages to plain ASCII for channels without Unicode.
func WithASCIIOnly(asciiOnly bool) ComposerOption {
	return func(c *Composer) {
		c.asciiOnly = asciiOnly
	}
}

// WithLocation renders timestamps in loc.
func WithLocation(loc *time.Location) ComposerOption {
	return func(c *Composer) {
		if loc != nil {
			c.location = loc
		}
	}
}

// NewComposer creates a Composer rendering local time by default.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{
		location: time.Local,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compose selects the template by kind and fills it from ac.
func (c *Composer) Compose(ac *domain.AlertContext) string {
	var b strings.Builder

	if ac.Kind == domain.AlertKindAutomatic {
		c.writeAutomatic(&b, ac)
	} else {
		c.writeManual(&b, ac)
	}

	if c.asciiOnly {
		return foldASCII(b.String())
	}

	return b.String()
}

func (c *Composer) writeAutomatic(b *strings.Builder, ac *domain.AlertContext) {
	fmt.Fprintf(b, "⚠️ %s ⚠️\n\n", AutomaticMarker)
	b.WriteString("DISPOSITIVO DESCONECTADO INESPERADAMENTE\n\n")
	fmt.Fprintf(b, "Fecha y hora: %s\n", c.format(ac.Timestamp))
	fmt.Fprintf(b, "Última ubicación conocida: %s\n", ac.Address)
	fmt.Fprintf(b, "Coordenadas: %s\n", ac.Coordinates.String())
	fmt.Fprintf(b, "Ver en mapa: %s\n", MapsLink(ac.Coordinates))

	if ac.HasLastConnection() {
		fmt.Fprintf(b, "Última conexión: %s\n", c.format(ac.LastConnection))
	}

	b.WriteString("\nEl dispositivo se desconectó del sistema de emergencia. ")
	b.WriteString("Por favor, verifica el estado de la persona inmediatamente.")
}

func (c *Composer) writeManual(b *strings.Builder, ac *domain.AlertContext) {
	fmt.Fprintf(b, "🚨 %s 🚨\n\n", ManualMarker)
	fmt.Fprintf(b, "Fecha y hora: %s\n", c.format(ac.Timestamp))
	fmt.Fprintf(b, "Ubicación: %s\n", ac.Address)
	fmt.Fprintf(b, "Coordenadas: %s\n", ac.Coordinates.String())
	fmt.Fprintf(b, "Ver en mapa: %s\n", MapsLink(ac.Coordinates))
	b.WriteString("\nEsta es una alerta manual de emergencia. ")
	b.WriteString("Por favor, verifica mi estado inmediatamente.")
}

func (c *Composer) format(ts time.Time) string {
	return ts.In(c.location).Format(TimestampLayout)
}

// MapsLink returns a Google Maps link pointing at coords.
func MapsLink(coords domain.Coordinates) string {
	return "https://maps.google.com/?q=" +
		domain.FormatDegrees(coords.Latitude) + "," + domain.FormatDegrees(coords.Longitude)
}

// foldASCII removes diacritics, then drops whatever is still outside ASCII
// (emoji, variation selectors) and trims the spaces they leave behind.
func foldASCII(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
		norm.NFC,
	)

	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	lines := strings.Split(folded, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.Join(lines, "\n")
}
