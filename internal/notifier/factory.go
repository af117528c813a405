package notifier

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oshokin/emergency-beacon/internal/config"
)

// maxBodyBytes caps how much of an API response body is read.
const maxBodyBytes = 64 << 10

// FromConfig builds the Notifier for the configured channel.
// nc is only used by the nats channel and may be nil otherwise.
func FromConfig(cfg *config.NotifierConfig, nc *nats.Conn, timeout time.Duration) (*Notifier, error) {
	var channel Channel

	switch cfg.Channel {
	case config.ChannelTwilio:
		channel = &Twilio{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.From,
			To:         cfg.Twilio.To,
			Endpoint:   cfg.Twilio.Endpoint,
		}
	case config.ChannelPushover:
		channel = &Pushover{
			Token:    cfg.Pushover.Token,
			User:     cfg.Pushover.User,
			Endpoint: cfg.Pushover.Endpoint,
		}
	case config.ChannelNtfy:
		channel = &Ntfy{
			URL:   cfg.Ntfy.URL,
			Topic: cfg.Ntfy.Topic,
			Token: cfg.Ntfy.Token,
		}
	case config.ChannelNATS:
		channel = &NATS{
			Conn:    nc,
			Subject: cfg.Subject,
		}
	case config.ChannelLog:
		channel = Log{}
	default:
		return nil, fmt.Errorf("unsupported notifier channel %q", cfg.Channel)
	}

	return New(cfg.Channel, channel, timeout), nil
}

// httpClient returns c or the default client.
func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}

	return http.DefaultClient
}
