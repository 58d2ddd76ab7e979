// Package transport carries device registration and telemetry to the
// collector over HTTP or MQTT.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/itohio/noisey/pkg/telemetry"
)

// ErrStatus is returned when the collector answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// Client posts JSON documents to the collector.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a client for baseURL. userAgent is sent with every
// request.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// UserAgent returns the User-Agent header value.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// SetUserAgent replaces the User-Agent header value, e.g. once the short id
// is known.
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// PostJSON marshals in, posts it to endpoint and, on a 2xx answer, decodes
// the body into out (if out is not nil). The status code is returned with
// every response; a non-2xx status wraps ErrStatus.
func (c *Client) PostJSON(ctx context.Context, endpoint string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("post %s: %d: %w", endpoint, resp.StatusCode, ErrStatus)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// HTTPSender posts telemetry messages to the data endpoint.
type HTTPSender struct {
	client   *Client
	endpoint string
}

var _ telemetry.Sender = (*HTTPSender)(nil)

// NewHTTPSender creates a sender posting to endpoint.
func NewHTTPSender(client *Client, endpoint string) *HTTPSender {
	return &HTTPSender{client: client, endpoint: endpoint}
}

// Send posts one message. The response body is ignored.
func (s *HTTPSender) Send(ctx context.Context, msg telemetry.Message) error {
	_, err := s.client.PostJSON(ctx, s.endpoint, msg, nil)
	return err
}
