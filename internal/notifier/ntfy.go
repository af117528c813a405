package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// errNtfyIncomplete is returned when the server or topic is missing.
var errNtfyIncomplete = errors.New("ntfy url and topic are required")

// Ntfy publishes messages to an ntfy topic.
type Ntfy struct {
	URL   string
	Topic string
	// Token is an optional access token.
	Token  string
	Client *http.Client
}

// Deliver posts message as an urgent notification.
func (n *Ntfy) Deliver(ctx context.Context, message string) error {
	if strings.TrimSpace(n.URL) == "" || strings.TrimSpace(n.Topic) == "" {
		return errNtfyIncomplete
	}

	endpoint := strings.TrimSuffix(n.URL, "/") + "/" + strings.TrimPrefix(n.Topic, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Title", "Emergency beacon")
	req.Header.Set("Priority", "urgent")
	req.Header.Set("Tags", "rotating_light,warning")
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}

	resp, err := httpClient(n.Client).Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ntfy returned status %s", resp.Status)
	}

	return nil
}
