// Package meetingguide proxies the public Meeting Guide API so browsers
// never talk to it directly (the upstream does not send CORS headers).
package meetingguide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUpstream indicates the Meeting Guide API failed or returned junk.
var ErrUpstream = errors.New("meetingguide: upstream error")

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a proxy client. A nil httpClient gets a default with
// a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Meetings fetches meetings near the given coordinates and returns the
// upstream JSON verbatim.
func (c *Client) Meetings(ctx context.Context, latitude, longitude string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("latitude", latitude)
	q.Set("longitude", longitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON response", ErrUpstream)
	}
	return body, nil
}
