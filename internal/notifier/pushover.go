package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	// defaultPushoverEndpoint is the Pushover messages API.
	defaultPushoverEndpoint = "https://api.pushover.net/1/messages.json"
	// pushoverHighPriority is the highest Pushover priority.
	pushoverHighPriority = "1"
	// pushoverTitle is the notification title.
	pushoverTitle = "Emergency beacon"
)

// errPushoverIncomplete is returned when token or user is missing.
var errPushoverIncomplete = errors.New("pushover token and user are required")

// Pushover sends notifications via the Pushover API.
type Pushover struct {
	Token    string
	User     string
	Endpoint string
	Client   *http.Client
}

// Deliver posts message with high priority.
func (p *Pushover) Deliver(ctx context.Context, message string) error {
	if p.Token == "" || p.User == "" {
		return errPushoverIncomplete
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = defaultPushoverEndpoint
	}

	data := url.Values{}
	data.Set("token", p.Token)
	data.Set("user", p.User)
	data.Set("title", pushoverTitle)
	data.Set("message", message)
	data.Set("priority", pushoverHighPriority)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient(p.Client).Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("pushover returned status %s", resp.Status)
	}

	return nil
}
