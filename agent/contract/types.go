package contract

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a persisted conversation transcript.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatMessage is one entry of the model-facing transcript for a single turn.
// Unlike Message it can carry tool-call plumbing.
type ChatMessage struct {
	Role       Role          `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []ToolRequest `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type ToolRequest struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	ID     string `json:"id"`
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the execution produced an error the model should
// see and react to.
func (r ToolResult) Failed() bool {
	return r.Error != ""
}

type PlannerRequest struct {
	System   string        `json:"system"`
	Messages []ChatMessage `json:"messages"`
}

// PlannerDecision carries one model round trip. A non-empty ToolCalls list
// means the turn continues with tool execution; FinalText holds whatever text
// the model produced, with or without tool calls.
type PlannerDecision struct {
	ToolCalls []ToolRequest `json:"tool_calls,omitempty"`
	FinalText string        `json:"final_text,omitempty"`
}

func (d PlannerDecision) WantsTools() bool {
	return len(d.ToolCalls) > 0
}

type EventType string

const (
	EventText       EventType = "text"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// StreamEvent is one incremental chunk of orchestrator output.
type StreamEvent struct {
	Type       EventType    `json:"type"`
	Text       string       `json:"text,omitempty"`
	ToolCall   *ToolRequest `json:"tool_call,omitempty"`
	ToolResult *ToolResult  `json:"tool_result,omitempty"`
	Err        string       `json:"error,omitempty"`
}

// EventSink receives stream events as they are produced. Must be safe for
// sequential calls only; the orchestrator never calls it concurrently.
type EventSink func(StreamEvent)

// ConversationSummary is the list-view projection of a conversation.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Conversation struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}
