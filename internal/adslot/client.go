// Package adslot provides client functionality for the external ad-slot
// provider. The provider is treated as opaque and fire-and-forget: callers
// tolerate its absence and must never block rendering on it.
package adslot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the base URL for the ad-slot provider
	DefaultBaseURL = "https://ads.trendingblock.example/v1"
)

// Slot represents an opaque ad unit returned by the provider
type Slot struct {
	ID      string `json:"id"`
	Format  string `json:"format"`
	Layout  string `json:"layout,omitempty"`
	Payload string `json:"payload"`
}

// AdSlotClient defines the interface for ad-slot operations
//
//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks
type AdSlotClient interface {
	FetchSlot(ctx context.Context, format, layout string) (*Slot, error)
}

// Client represents an ad-slot provider client
type Client struct {
	clientID   string
	baseURL    string
	httpClient *http.Client
}

// New creates a new ad-slot client
func New(clientID string) *Client {
	return &Client{
		clientID: clientID,
		baseURL:  DefaultBaseURL,
		httpClient: &http.Client{
			// An ad unit is never worth a slow page
			Timeout: 2 * time.Second,
		},
	}
}

// FetchSlot requests an ad unit for the given format and layout
func (c *Client) FetchSlot(ctx context.Context, format, layout string) (*Slot, error) {
	params := url.Values{}
	params.Set("client", c.clientID)
	params.Set("format", format)
	if layout != "" {
		params.Set("layout", layout)
	}

	endpoint := fmt.Sprintf("%s/slot?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider request failed with status %d", resp.StatusCode)
	}

	var slot Slot
	if err := json.NewDecoder(resp.Body).Decode(&slot); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &slot, nil
}
