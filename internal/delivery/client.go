// Package delivery pushes normalized records to the downstream GraphQL
// mutation endpoint.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mutation is one GraphQL call: the document, its variables, and the
// per-request credentials forwarded from the inbound transport headers.
type Mutation struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`

	Host      string `json:"-"`
	AuthToken string `json:"-"`
	APIKey    string `json:"-"`
}

// Deliverer executes mutations against the downstream endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, m *Mutation) error
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is the HTTP implementation of Deliverer.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ Deliverer = (*Client)(nil)

// NewClient creates a delivery client for the given GraphQL endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// graphQLResponse is the subset of the response needed for error checks.
type graphQLResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Deliver posts one mutation. GraphQL-level errors are surfaced as call
// errors; the caller decides whether to propagate or just log them.
func (c *Client) Deliver(ctx context.Context, m *Mutation) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mutation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.Host != "" {
		req.Host = m.Host
	}
	if m.AuthToken != "" {
		req.Header.Set("Authorization", m.AuthToken)
	}
	if m.APIKey != "" {
		req.Header.Set("X-Api-Key", m.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post mutation: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read mutation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mutation failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return fmt.Errorf("decode mutation response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("mutation rejected: %s", gqlResp.Errors[0].Message)
	}
	return nil
}
