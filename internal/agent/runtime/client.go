// Package runtime provides the HTTP client for the agent runtime's
// streaming invoke endpoint.
package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tjfontaine/agent-stream-adapter/internal/agent"
	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client invokes the agent runtime and decodes its SSE completion stream
// into raw events. It implements agent.Invoker.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ agent.Invoker = (*Client)(nil)

// NewClient creates a new agent runtime client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InvokeAgent starts an invocation and returns the event stream. The
// returned channel is closed when the remote side signals end-of-stream
// or after an error event.
func (c *Client) InvokeAgent(ctx context.Context, req *agent.InvokeRequest) (<-chan agent.StreamEvent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal invoke request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke-agent", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewTransportFailure("invoke agent", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, domain.NewTransportFailure(
			fmt.Sprintf("invoke agent: status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	out := make(chan agent.StreamEvent)
	go c.streamReader(resp.Body, out)
	return out, nil
}

func (c *Client) streamReader(body io.ReadCloser, out chan<- agent.StreamEvent) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	// Trace payloads can be large; grow the line buffer accordingly.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return
		}

		var ev domain.RawEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			out <- agent.StreamEvent{Err: domain.NewTransportFailure("decode stream event", err)}
			return
		}

		out <- agent.StreamEvent{Event: &ev}
	}

	if err := scanner.Err(); err != nil {
		out <- agent.StreamEvent{Err: domain.NewTransportFailure("read stream", err)}
	}
}
