package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

// maxResponseBytes caps how much of a lookup response is read.
const maxResponseBytes = 1 << 20

// errEmptyDisplayName is returned when the lookup succeeded without an address.
var errEmptyDisplayName = errors.New("empty display_name in response")

// Nominatim queries an OpenStreetMap Nominatim reverse endpoint.
type Nominatim struct {
	// Endpoint is the reverse lookup URL.
	Endpoint string
	// UserAgent is required by the Nominatim usage policy.
	UserAgent string
	// Client is the HTTP client, http.DefaultClient when nil.
	Client *http.Client
}

// nominatimResponse is the subset of the reverse response we use.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
}

// Lookup fetches display_name for coords.
func (n *Nominatim) Lookup(ctx context.Context, coords domain.Coordinates) (string, error) {
	endpoint, err := url.Parse(n.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	query := endpoint.Query()
	query.Set("format", "json")
	query.Set("lat", domain.FormatDegrees(coords.Latitude))
	query.Set("lon", domain.FormatDegrees(coords.Longitude))
	query.Set("zoom", "18")
	query.Set("addressdetails", "1")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := n.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse lookup: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse lookup returned status %s", resp.Status)
	}

	var body nominatimResponse
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	address := strings.TrimSpace(body.DisplayName)
	if address == "" {
		return "", errEmptyDisplayName
	}

	return address, nil
}

func (n *Nominatim) client() *http.Client {
	if n.Client != nil {
		return n.Client
	}

	return http.DefaultClient
}
