package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"

	"github.com/lookatitude/skill-engine/agentbridge"
	"github.com/lookatitude/skill-engine/protocol/mcp"
)

// callBridgeTool drives one of agentbridge's four tools through the real
// MCP JSON-RPC dispatch path (in-process, no socket), so the CLI and an
// actual MCP client exercise byte-identical request handling.
func callBridgeTool(srv *mcp.MCPServer, name string, args map[string]any) (mcp.CallToolResult, error) {
	reqBody, err := json.Marshal(mcp.Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  map[string]any{"name": name, "arguments": args},
	})
	if err != nil {
		return mcp.CallToolResult{}, err
	}

	req := httptest.NewRequest("POST", "/mcp", bytes.NewReader(reqBody))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp mcp.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		return mcp.CallToolResult{}, fmt.Errorf("decode mcp response: %w", err)
	}
	if resp.Error != nil {
		return mcp.CallToolResult{}, resp.Error
	}

	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return mcp.CallToolResult{}, err
	}
	var result mcp.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return mcp.CallToolResult{}, fmt.Errorf("decode tool result: %w", err)
	}
	return result, nil
}

// resultText concatenates a CallToolResult's text content parts, which is
// every part agentbridge's tools ever produce.
func resultText(r mcp.CallToolResult) string {
	var buf bytes.Buffer
	for _, part := range r.Content {
		buf.WriteString(part.Text)
	}
	return buf.String()
}

// newBridgeServer builds the Bridge and an MCPServer with it registered,
// sharing one construction path between "run"/"find" (called through the
// dispatch path above) and "serve" (exposed over a real transport).
func newBridgeServer() (*agentbridge.Bridge, *mcp.MCPServer, error) {
	m, err := loadManifest()
	if err != nil {
		return nil, nil, err
	}
	srv := mcp.NewServer("skill-engine", "0.1.0")
	b, err := agentbridge.Register(srv, agentbridge.Config{
		Manifest:    m,
		Cache:       buildCache(),
		Executor:    buildExecutor(),
		NewPipeline: newPipelineFactory(),
		Generator:   buildGenerator(),
	})
	if err != nil {
		return nil, nil, invocationErrorf("%s", err)
	}
	return b, srv, nil
}
