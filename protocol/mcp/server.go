package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/lookatitude/skill-engine/o11y"
	"github.com/lookatitude/skill-engine/schema"
	"github.com/lookatitude/skill-engine/tool"
)

// MCPServer serves tool.Tool values, resources, and prompts over MCP's
// JSON-RPC 2.0 transport.
type MCPServer struct {
	name    string
	version string
	logger  *o11y.Logger

	tools *tool.Registry

	mu        sync.RWMutex
	resources []Resource
	prompts   []Prompt
}

// NewServer creates an MCP server identified by name and version.
func NewServer(name, version string) *MCPServer {
	return &MCPServer{
		name:    name,
		version: version,
		logger:  o11y.NewLogger(),
		tools:   tool.NewRegistry(),
	}
}

// AddTool registers t, and returns the server for chaining. A duplicate name
// is logged and otherwise ignored.
func (s *MCPServer) AddTool(t tool.Tool) *MCPServer {
	if err := s.tools.Add(t); err != nil {
		s.logger.Error(context.Background(), "add tool", "error", err)
	}
	return s
}

// AddResource registers a static resource, and returns the server for
// chaining.
func (s *MCPServer) AddResource(r Resource) *MCPServer {
	s.mu.Lock()
	s.resources = append(s.resources, r)
	s.mu.Unlock()
	return s
}

// AddPrompt registers a prompt template, and returns the server for
// chaining.
func (s *MCPServer) AddPrompt(p Prompt) *MCPServer {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()
	return s
}

// Handler returns the JSON-RPC 2.0 HTTP handler. MCP always answers with
// HTTP 200; transport and protocol errors are carried in the JSON-RPC error
// field instead of the status line.
func (s *MCPServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeError(w, nil, CodeInvalidRequest, "method not allowed: "+r.Method)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, nil, CodeParseError, err.Error())
			return
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(w, nil, CodeParseError, err.Error())
			return
		}

		if req.JSONRPC != "2.0" {
			s.writeError(w, req.ID, CodeInvalidRequest, "unsupported jsonrpc version: "+req.JSONRPC)
			return
		}

		result, rpcErr := s.dispatch(r.Context(), req)
		resp := Response{JSONRPC: "2.0", ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
		s.writeResponse(w, resp)
	})
}

// Router builds the gorilla/mux router used by the HTTP-streaming
// transport: one session is one *MCPServer, so unlike the teacher's REST
// server this router carries no auth/rate-limit middleware of its own --
// a session boundary already scopes access. POST /mcp carries the JSON-RPC
// envelope; GET /healthz is a plain liveness probe for the process
// supervising the session.
func (s *MCPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.HandleFunc("/mcp", s.Handler().ServeHTTP).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

func (s *MCPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *MCPServer) writeError(w http.ResponseWriter, id any, code int, msg string) {
	s.writeResponse(w, Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: msg},
	})
}

func (s *MCPServer) writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(context.Background(), "encode mcp response", "error", err)
	}
}

func (s *MCPServer) dispatch(ctx context.Context, req Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(), nil
	case "tools/list":
		return map[string]any{"tools": s.tools.Definitions()}, nil
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "resources/list":
		s.mu.RLock()
		resources := append([]Resource(nil), s.resources...)
		s.mu.RUnlock()
		return map[string]any{"resources": resources}, nil
	case "prompts/list":
		s.mu.RLock()
		prompts := append([]Prompt(nil), s.prompts...)
		s.mu.RUnlock()
		return map[string]any{"prompts": prompts}, nil
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

func (s *MCPServer) handleInitialize() InitializeResult {
	return InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ToolCapability{},
			Resources: &ResourceCapability{},
			Prompts:   &PromptCapability{},
		},
		ServerInfo: ServerInfo{Name: s.name, Version: s.version},
	}
}

func (s *MCPServer) handleToolsCall(ctx context.Context, params any) (any, *RPCError) {
	var p struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid tools/call params: " + err.Error()}
	}

	t, err := s.tools.Get(p.Name)
	if err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	result, err := t.Execute(ctx, p.Arguments)
	if err != nil {
		s.logger.Error(ctx, "tool execution failed", "tool", p.Name, "error", err)
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}

	return wireResult(result), nil
}

func wireResult(r *tool.Result) *CallToolResult {
	content := make([]ToolContent, 0, len(r.Content))
	for _, part := range r.Content {
		if tp, ok := part.(schema.TextPart); ok {
			content = append(content, ToolContent{Type: "text", Text: tp.Text})
			continue
		}
		content = append(content, ToolContent{Type: "text", Text: fmt.Sprintf("%v", part)})
	}
	return &CallToolResult{Content: content, IsError: r.IsError}
}

// Serve listens on addr and serves MCP until ctx is cancelled, at which
// point it shuts down gracefully and returns ctx.Err().
func (s *MCPServer) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcp: listen %s: %w", addr, err)
	}

	httpServer := &http.Server{Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "mcp server shutdown", "error", err)
		}
		return ctx.Err()
	}
}

// ServeStdio serves MCP over newline-delimited JSON-RPC frames read from r
// and written to w, per the stdio transport's inherently-serial contract:
// one request is read, dispatched, and answered before the next line is
// read. It returns when r is exhausted (io.EOF) or ctx is cancelled.
func (s *MCPServer) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if encErr := enc.Encode(Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: CodeParseError, Message: err.Error()},
			}); encErr != nil {
				return encErr
			}
			continue
		}

		result, rpcErr := s.dispatch(ctx, req)
		resp := Response{JSONRPC: "2.0", ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}
