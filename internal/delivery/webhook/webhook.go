// Package webhook delivers OTP emails through an HTTP email API.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 15 * time.Second

// maxErrorBody bounds how much of a failed response body is carried in the error.
const maxErrorBody = 1 << 10

// ErrNotConfigured is returned when the client has no endpoint.
var ErrNotConfigured = errors.New("webhook: endpoint not configured")

// Client posts messages as JSON to an email API endpoint.
type Client struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

type payload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// NewClient returns a client for the given endpoint. apiKey, when set, is sent as the Authorization header.
// Outgoing requests are traced with otelhttp.
func NewClient(url, apiKey string) *Client {
	return &Client{
		URL:    url,
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Send posts one message. Any non-2xx status is an error carrying status and body. Does not log the body.
func (c *Client) Send(ctx context.Context, recipient, subject, body string) error {
	if c.URL == "" {
		return ErrNotConfigured
	}
	raw, err := json.Marshal(payload{To: recipient, Subject: subject, Text: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
