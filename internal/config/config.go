package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the beacon server and client binaries.
type Config struct {
	// GRPCAddress is the gRPC listen address for the server and the dial target for clients.
	GRPCAddress string `yaml:"grpc_addr"`
	// HTTPAddress is the JSON/metrics listen address. HTTPDisabled turns the listener off.
	HTTPAddress string `yaml:"http_addr"`
	// PollInterval is how often the monitor loop checks for heartbeat silence.
	PollInterval time.Duration `yaml:"poll_interval"`
	// StalenessThreshold is the longest silence tolerated before an automatic alert.
	StalenessThreshold time.Duration `yaml:"staleness_threshold"`
	// CallTimeout bounds every geocoding, notification and RPC call.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// LogLevel is the minimum zap level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// Geocoder configures reverse geocoding.
	Geocoder GeocoderConfig `yaml:"geocoder"`
	// Notifier configures the outbound emergency channel.
	Notifier NotifierConfig `yaml:"notifier"`
	// Composer configures message rendering.
	Composer ComposerConfig `yaml:"composer"`
	// NATS configures the optional heartbeat ingress over NATS.
	NATS NATSConfig `yaml:"nats"`
}

// GeocoderConfig holds reverse geocoding settings.
type GeocoderConfig struct {
	// Endpoint is the Nominatim-compatible reverse lookup URL.
	Endpoint string `yaml:"endpoint"`
	// UserAgent is sent with every lookup, as Nominatim requires one.
	UserAgent string `yaml:"user_agent"`
	// Disabled skips lookups and always uses the coordinate fallback.
	Disabled bool `yaml:"disabled"`
}

// NotifierConfig selects and configures the outbound channel.
type NotifierConfig struct {
	// Channel is one of the Channel* constants.
	Channel string `yaml:"channel"`
	// Twilio holds WhatsApp delivery settings.
	Twilio TwilioConfig `yaml:"twilio"`
	// Pushover holds Pushover delivery settings.
	Pushover PushoverConfig `yaml:"pushover"`
	// Ntfy holds ntfy delivery settings.
	Ntfy NtfyConfig `yaml:"ntfy"`
	// Subject is the NATS subject alerts are published to for the nats channel.
	Subject string `yaml:"subject"`
}

// TwilioConfig holds Twilio WhatsApp credentials and the fixed emergency contact.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	// From is the sender number, e.g. "whatsapp:+14155238886".
	From string `yaml:"from"`
	// To is the emergency contact, e.g. "whatsapp:+1234567890".
	To string `yaml:"to"`
	// Endpoint overrides the Twilio API base URL.
	Endpoint string `yaml:"endpoint"`
}

// PushoverConfig holds Pushover credentials.
type PushoverConfig struct {
	Token    string `yaml:"token"`
	User     string `yaml:"user"`
	Endpoint string `yaml:"endpoint"`
}

// NtfyConfig holds the ntfy server and topic.
type NtfyConfig struct {
	URL   string `yaml:"url"`
	Topic string `yaml:"topic"`
	Token string `yaml:"token"`
}

// ComposerConfig controls message rendering.
type ComposerConfig struct {
	// ASCIIOnly folds accents and drops symbols for channels without Unicode support.
	ASCIIOnly bool `yaml:"ascii_only"`
	// Timezone is an IANA zone name used for timestamps in messages.
	Timezone string `yaml:"timezone"`
}

// NATSConfig holds NATS connection settings shared by the ingress and the nats channel.
type NATSConfig struct {
	// URL of the NATS server. Empty disables NATS entirely.
	URL string `yaml:"url"`
	// HeartbeatSubject is subscribed to for heartbeat payloads.
	HeartbeatSubject string `yaml:"heartbeat_subject"`
}

// Notification channel names.
const (
	ChannelTwilio   = "twilio"
	ChannelPushover = "pushover"
	ChannelNtfy     = "ntfy"
	ChannelNATS     = "nats"
	ChannelLog      = "log"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "emergency-beacon-settings.yaml"

	// DefaultGRPCAddress is the default gRPC listen address.
	DefaultGRPCAddress = ":50051"

	// DefaultHTTPAddress is the default JSON/metrics listen address.
	DefaultHTTPAddress = ":5000"

	// HTTPDisabled as http_addr turns the HTTP listener off.
	HTTPDisabled = "off"

	// DefaultPollInterval is how often the monitor loop wakes up.
	DefaultPollInterval = 30 * time.Second

	// DefaultStalenessThreshold is the silence tolerated before an automatic alert.
	DefaultStalenessThreshold = 2 * time.Minute

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when log_level is not set.
	DefaultLogLevel = "info"

	// DefaultGeocoderEndpoint is the public Nominatim reverse lookup URL.
	DefaultGeocoderEndpoint = "https://nominatim.openstreetmap.org/reverse"

	// DefaultUserAgent identifies the service to the geocoder.
	DefaultUserAgent = "EmergencyGPS/1.0"

	// DefaultHeartbeatSubject is the NATS subject heartbeats arrive on.
	DefaultHeartbeatSubject = "beacon.heartbeat"

	// DefaultAlertSubject is the NATS subject alerts are published to.
	DefaultAlertSubject = "beacon.alert"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errGRPCAddressRequired is returned when the gRPC address is missing.
	errGRPCAddressRequired = errors.New("grpc address must be provided")
	// errPollExceedsThreshold is returned when the loop would tick less often than the threshold.
	errPollExceedsThreshold = errors.New("poll interval must not exceed staleness threshold")
	// errUnknownChannel is returned for an unsupported notifier channel.
	errUnknownChannel = errors.New("unknown notifier channel")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	ApplyEnv(&cfg, os.Getenv)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets and endpoints with non-empty environment values.
// The variable names match the ones the web client deployment already uses.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"TWILIO_ACCOUNT_SID", &cfg.Notifier.Twilio.AccountSID},
		{"TWILIO_AUTH_TOKEN", &cfg.Notifier.Twilio.AuthToken},
		{"TWILIO_WHATSAPP_NUMBER", &cfg.Notifier.Twilio.From},
		{"EMERGENCY_CONTACT", &cfg.Notifier.Twilio.To},
		{"PUSHOVER_TOKEN", &cfg.Notifier.Pushover.Token},
		{"PUSHOVER_USER", &cfg.Notifier.Pushover.User},
		{"NATS_URL", &cfg.NATS.URL},
	}

	for _, o := range overrides {
		if v := strings.TrimSpace(getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for everything optional.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.GRPCAddress == "" {
		return errGRPCAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if settings.HTTPAddress == "" {
		settings.HTTPAddress = DefaultHTTPAddress
	}

	if settings.HTTPAddress != HTTPDisabled {
		if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}

	if settings.StalenessThreshold <= 0 {
		settings.StalenessThreshold = DefaultStalenessThreshold
	}

	if settings.PollInterval > settings.StalenessThreshold {
		return errPollExceedsThreshold
	}

	if settings.CallTimeout <= 0 {
		settings.CallTimeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if settings.Geocoder.Endpoint == "" {
		settings.Geocoder.Endpoint = DefaultGeocoderEndpoint
	}

	if _, err := url.ParseRequestURI(settings.Geocoder.Endpoint); err != nil {
		return fmt.Errorf("invalid geocoder endpoint: %w", err)
	}

	if settings.Geocoder.UserAgent == "" {
		settings.Geocoder.UserAgent = DefaultUserAgent
	}

	if settings.Composer.Timezone != "" {
		if _, err := time.LoadLocation(settings.Composer.Timezone); err != nil {
			return fmt.Errorf("invalid composer timezone: %w", err)
		}
	}

	if settings.NATS.HeartbeatSubject == "" {
		settings.NATS.HeartbeatSubject = DefaultHeartbeatSubject
	}

	return validateNotifier(&settings.Notifier)
}

// validateNotifier checks the channel name only. Missing credentials are a
// send-time failure so a misconfigured channel never stops monitoring.
func validateNotifier(n *NotifierConfig) error {
	if n.Channel == "" {
		n.Channel = ChannelTwilio
	}

	n.Channel = strings.ToLower(strings.TrimSpace(n.Channel))

	switch n.Channel {
	case ChannelTwilio, ChannelPushover, ChannelNtfy, ChannelLog:
	case ChannelNATS:
		if n.Subject == "" {
			n.Subject = DefaultAlertSubject
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownChannel, n.Channel)
	}

	return nil
}

// Location returns the time zone configured for messages, defaulting to local time.
func (c *ComposerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}
