// Package relay defines the notification wire payload and a fire-and-forget
// HTTP client for the local notification server.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is where the notification server listens unless overridden
// by settings or PAJ_SERVER_URL.
const DefaultBaseURL = "http://localhost:8888"

// Priority levels accepted by the server.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Payload is the notification wire entity. Message length is capped at 500
// characters server-side; clients send it as-is and let the server decide.
type Payload struct {
	Title        string  `json:"title,omitempty"`
	Message      string  `json:"message,omitempty"`
	VoiceEnabled bool    `json:"voice_enabled"`
	Priority     string  `json:"priority,omitempty"`
	VoiceID      string  `json:"voice_id,omitempty"`
	VoiceName    string  `json:"voice_name,omitempty"`
	Rate         float64 `json:"rate,omitempty"`
}

// Client posts payloads to the notification server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the given base URL ("" uses the default).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify POSTs the payload to /notify and reports delivery errors. Direct
// callers (the notify command) surface the error; hook paths use Send.
func (c *Client) Notify(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/notify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification server returned %d", resp.StatusCode)
	}
	return nil
}

// Send is the fire-and-forget variant used by hooks: any failure is logged
// and swallowed. A missed spoken notification must never fail the hook or
// block the parent runtime.
func (c *Client) Send(ctx context.Context, p Payload) {
	if err := c.Notify(ctx, p); err != nil {
		slog.Default().Warn("notification delivery failed", "error", err, "title", p.Title)
	}
}

// Health checks the server's /health endpoint and returns its raw body.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return body, nil
}
