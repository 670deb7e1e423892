package schema

import "time"

// StreamChunk is one increment of a streamed generator response.
type StreamChunk struct {
	Delta        string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        *Usage
	ModelID      string
}

// AgentEvent is an emitted lifecycle/telemetry event, used for the
// generate_examples streaming feed and for internal tracing hooks.
type AgentEvent struct {
	Type      string
	AgentID   string
	Payload   any
	Timestamp time.Time
}
