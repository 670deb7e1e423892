package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lookatitude/skill-engine/agentbridge"
	"github.com/lookatitude/skill-engine/generator"
	"github.com/lookatitude/skill-engine/o11y"
)

// wsUpgrader allows any origin: a serve session is scoped to one process
// the same way the HTTP-streaming MCP transport is, so there is no
// cross-origin credential to protect.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// generateExamplesWSRequest is the single JSON message a client sends right
// after the websocket handshake to kick off one generate_examples stream.
type generateExamplesWSRequest struct {
	Skill string `json:"skill"`
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// wsGenerateExamplesHandler upgrades to a websocket and streams
// generate_examples' GenerateEvent sequence as individual JSON text
// frames, one per event, instead of the MCP tool's single flattened
// tool.Result. A client watching example generation for a large skill
// sees Started/Example/ToolCompleted/... arrive as they're produced.
func wsGenerateExamplesHandler(bridge *agentbridge.Bridge) http.HandlerFunc {
	logger := o11y.NewLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error(r.Context(), "websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		var req generateExamplesWSRequest
		if err := conn.ReadJSON(&req); err != nil {
			writeWSError(conn, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		streamErr := bridge.StreamGenerateExamples(ctx, agentbridge.GenerateExamplesRequest{
			Skill: req.Skill,
			Tool:  req.Tool,
			Count: req.Count,
		}, func(ev generator.GenerateEvent) error {
			return conn.WriteJSON(wsEventPayload(ev))
		})
		if streamErr != nil {
			writeWSError(conn, streamErr)
			return
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

func writeWSError(conn *websocket.Conn, err error) {
	_ = conn.WriteJSON(map[string]any{"kind": "error", "error": err.Error()})
}

func wsEventPayload(ev generator.GenerateEvent) map[string]any {
	payload := map[string]any{"kind": string(ev.Kind)}
	if ev.Tool != "" {
		payload["tool"] = ev.Tool
	}
	if ev.Kind == generator.EventExample {
		payload["example"] = map[string]any{"tool": ev.Example.Tool, "command": ev.Example.Command}
	}
	if ev.Kind == generator.EventCompleted {
		payload["total"] = ev.Total
	}
	if ev.Err != nil {
		payload["error"] = ev.Err.Error()
	}
	return payload
}
