package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/oshokin/emergency-beacon/internal/logger"
)

// defaultTwilioEndpoint is the Twilio REST API base URL.
const defaultTwilioEndpoint = "https://api.twilio.com"

// errTwilioIncomplete is returned when any Twilio setting is missing.
var errTwilioIncomplete = errors.New("twilio configuration is incomplete")

// Twilio sends WhatsApp messages through the Twilio Messages resource.
type Twilio struct {
	AccountSID string
	AuthToken  string
	// From is the sender, e.g. "whatsapp:+14155238886".
	From string
	// To is the emergency contact, e.g. "whatsapp:+1234567890".
	To       string
	Endpoint string
	Client   *http.Client
}

// twilioMessage is the subset of the Messages response we log.
type twilioMessage struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// Deliver creates one message for the emergency contact.
func (t *Twilio) Deliver(ctx context.Context, message string) error {
	if t.AccountSID == "" || t.AuthToken == "" || t.From == "" || t.To == "" {
		return errTwilioIncomplete
	}

	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = defaultTwilioEndpoint
	}

	resource := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimSuffix(endpoint, "/"), url.PathEscape(t.AccountSID))

	form := url.Values{}
	form.Set("From", t.From)
	form.Set("To", t.To)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resource, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient(t.Client).Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	var body twilioMessage

	// The body is informational only.
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("twilio returned status %s: %s", resp.Status, body.Message)
	}

	logger.InfoKV(ctx, "Twilio message created", "sid", body.SID)

	return nil
}
