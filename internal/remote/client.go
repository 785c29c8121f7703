package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	analytics "wastetrack-cloud/internal/analytics/domain"
)

// Client fetches dashboard snapshots from a remote aggregation endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// NewClient constructs a remote client.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("remote: empty base url")
	}
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type envelope struct {
	Success bool               `json:"success"`
	Data    analytics.Snapshot `json:"data"`
}

// FetchSnapshot retrieves the remote dashboard document. A non-2xx status
// or an envelope without success set is an error; the provider decides what
// to fall back to.
func (c *Client) FetchSnapshot(ctx context.Context) (analytics.Snapshot, error) {
	if c == nil {
		return analytics.Snapshot{}, errors.New("remote: nil client")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dashboard", nil)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return analytics.Snapshot{}, fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}
	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return analytics.Snapshot{}, err
	}
	if !body.Success {
		return analytics.Snapshot{}, errors.New("remote: response not successful")
	}
	return body.Data, nil
}
