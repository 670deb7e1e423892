package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/lookatitude/skill-engine/tool"
)

// Client is an MCP client over the JSON-RPC 2.0 HTTP transport.
type Client struct {
	baseURL string
	http    *http.Client
	nextID  int64
}

// NewClient builds a Client that talks to the MCP server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// call issues a JSON-RPC request and decodes its result into result, which
// may be nil to discard the result.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	id := atomic.AddInt64(&c.nextID, 1)
	reqBody, err := json.Marshal(Request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("mcp: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("mcp: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mcp: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("mcp: decode response for %s: %w", method, err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("mcp: %s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if result == nil {
		return nil
	}

	raw, err := json.Marshal(rpcResp.Result)
	if err != nil {
		return fmt.Errorf("mcp: re-encode result for %s: %w", method, err)
	}
	return json.Unmarshal(raw, result)
}

// Initialize performs the MCP handshake and returns the server's declared
// capabilities.
func (c *Client) Initialize(ctx context.Context) (*ServerCapabilities, error) {
	var result InitializeResult
	if err := c.call(ctx, "initialize", nil, &result); err != nil {
		return nil, err
	}
	return &result.Capabilities, nil
}

// ListTools returns the server's tool definitions.
func (c *Client) ListTools(ctx context.Context) ([]tool.Definition, error) {
	var result struct {
		Tools []tool.Definition `json:"tools"`
	}
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a tool by name with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	params := map[string]any{"name": name, "arguments": args}
	var result CallToolResult
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
