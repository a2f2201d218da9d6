// Package shopmcp is a thin JSON-RPC client for the storefront MCP endpoint
// every Shopify shop exposes at /api/mcp.
package shopmcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const maxResponseSizeBytes = 4 << 20

// RemoteToolError is a failure reported by the remote tool itself, as opposed
// to a transport failure. The orchestrator feeds these back to the model.
type RemoteToolError struct {
	Store   string
	Method  string
	Message string
}

func (e *RemoteToolError) Error() string {
	return fmt.Sprintf("remote tool %s on %s: %s", e.Method, e.Store, e.Message)
}

type Config struct {
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client speaks the tools/call envelope. One client serves every store; the
// store is addressed per call.
type Client struct {
	httpClient *http.Client
	nextID     atomic.Int64
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func MustNew(cfg Config, opts ...Option) *Client {
	return NewClient(cfg, opts...)
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int64     `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type rpcResponse struct {
	Result *rpcResult `json:"result"`
	Error  *rpcError  `json:"error"`
}

type rpcResult struct {
	Content []rpcContent `json:"content"`
}

type rpcContent struct {
	Text string `json:"text"`
}

type rpcError struct {
	Message string `json:"message"`
}

// Call invokes a named tool on the given store and returns the decoded inner
// payload. The wire format double-encodes the payload: the JSON-RPC result
// carries a content list whose first entry is a JSON string.
func (c *Client) Call(ctx context.Context, store, method string, args map[string]any) (json.RawMessage, error) {
	store = strings.TrimSpace(store)
	if store == "" {
		return nil, errors.New("shopmcp: store is required")
	}
	if strings.TrimSpace(method) == "" {
		return nil, errors.New("shopmcp: method is required")
	}
	if args == nil {
		args = map[string]any{}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "tools/call",
		Params:  rpcParams{Name: method, Arguments: args},
	})
	if err != nil {
		return nil, fmt.Errorf("shopmcp: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL(store), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shopmcp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopmcp: call %s on %s: %w", method, store, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("shopmcp: read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("shopmcp: http status=%d store=%s body=%s", resp.StatusCode, store, truncate(raw, 256))
	}

	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("shopmcp: decode envelope: %w", err)
	}
	if parsed.Error != nil {
		msg := strings.TrimSpace(parsed.Error.Message)
		if msg == "" {
			msg = "MCP error"
		}
		return nil, &RemoteToolError{Store: store, Method: method, Message: msg}
	}
	if parsed.Result == nil || len(parsed.Result.Content) == 0 {
		return nil, fmt.Errorf("shopmcp: empty result from %s on %s", method, store)
	}

	inner := parsed.Result.Content[0].Text
	if !json.Valid([]byte(inner)) {
		return nil, fmt.Errorf("shopmcp: inner payload from %s is not valid JSON", store)
	}
	return json.RawMessage(inner), nil
}

// endpointURL allows a pre-schemed store address so tests can point at a
// plain-HTTP server; production stores are bare domains.
func endpointURL(store string) string {
	if strings.HasPrefix(store, "http://") || strings.HasPrefix(store, "https://") {
		return strings.TrimRight(store, "/") + "/api/mcp"
	}
	return "https://" + store + "/api/mcp"
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
