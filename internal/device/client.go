// Package device is a client for the camera firmware's HTTP control API.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/saniflush/camconsole/internal/metrics"
)

// Client talks to one camera. It does not retry and imposes no timeout of
// its own; failures surface through the transport's error signalling.
type Client struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics

	mu     sync.Mutex
	status LinkStatus
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithMetrics records request outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for the device at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the device root URL
func (c *Client) BaseURL() string { return c.baseURL }

// Status returns the current link status
func (c *Client) Status() LinkStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Wifi fetches the WiFi telemetry
func (c *Client) Wifi(ctx context.Context) (WifiSample, error) {
	var sample WifiSample
	body, err := c.get(ctx, "/api/wifi", nil)
	if err != nil {
		return sample, err
	}
	if err := json.Unmarshal(body, &sample); err != nil {
		return sample, fmt.Errorf("decode /api/wifi: %w", err)
	}
	return sample, nil
}

// Values fetches the full settings snapshot
func (c *Client) Values(ctx context.Context) (Snapshot, error) {
	body, err := c.get(ctx, "/api/values", nil)
	if err != nil {
		return nil, err
	}
	snap := Snapshot{}
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode /api/values: %w", err)
	}
	return snap, nil
}

// Adjust steps a ranged setting up or down and returns the acknowledgement
func (c *Client) Adjust(ctx context.Context, name string, dir Direction) (string, error) {
	return c.setting(ctx, name, string(dir))
}

// Toggle flips a boolean setting and returns the acknowledgement
func (c *Client) Toggle(ctx context.Context, name string) (string, error) {
	return c.setting(ctx, name, ActionToggle)
}

func (c *Client) setting(ctx context.Context, name, action string) (string, error) {
	body, err := c.get(ctx, "/api/settings", url.Values{
		"setting": {name},
		"action":  {action},
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Log fetches the activity log blob
func (c *Client) Log(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/api/log", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// SetColorMode switches between colour and black & white
func (c *Client) SetColorMode(ctx context.Context, mode ColorMode) (string, error) {
	body, err := c.get(ctx, "/set_bw", url.Values{"mode": {string(mode)}})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, metrics.OutcomeTransport, time.Since(start))
		c.setError(err)
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, metrics.OutcomeTransport, time.Since(start))
		c.setError(err)
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveRequest(endpoint, metrics.OutcomeStatus, time.Since(start))
		serr := &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		// The device answered, so the link itself is up.
		c.setSeen(serr)
		return nil, serr
	}

	c.metrics.ObserveRequest(endpoint, metrics.OutcomeOK, time.Since(start))
	c.setSeen(nil)
	return body, nil
}

func (c *Client) setSeen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Connected = true
	c.status.LastSeen = time.Now()
	c.status.LastError = ""
	if err != nil {
		c.status.LastError = err.Error()
	}
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Connected = false
	c.status.LastError = err.Error()
}
