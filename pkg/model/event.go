package model

import "time"

// EventType identifies the kind of a recorded action event.
// The set is closed: adding a kind is a taxonomy change, not configuration.
type EventType string

const (
	// User interaction.
	EventUserInput   EventType = "user_input"
	EventUserCommand EventType = "user_command"

	// Agent lifecycle.
	EventAgentStateChange EventType = "agent_state_change"
	EventAgentThinking    EventType = "agent_thinking"

	// Model interaction.
	EventLLMRequest  EventType = "llm_request"
	EventLLMResponse EventType = "llm_response"
	EventLLMError    EventType = "llm_error"

	// Tool interaction.
	EventToolCall           EventType = "tool_call"
	EventToolResult         EventType = "tool_result"
	EventToolError          EventType = "tool_error"
	EventPermissionDecision EventType = "permission_decision"

	// Session lifecycle.
	EventSessionStart  EventType = "session_start"
	EventSessionEnd    EventType = "session_end"
	EventSessionPause  EventType = "session_pause"
	EventSessionResume EventType = "session_resume"

	// Extension lifecycle.
	EventHookExecute EventType = "hook_execute"
	EventHookError   EventType = "hook_error"

	// System.
	EventSystemError   EventType = "system_error"
	EventSystemWarning EventType = "system_warning"
)

// AllEventTypes lists every recognized event type.
var AllEventTypes = []EventType{
	EventUserInput, EventUserCommand,
	EventAgentStateChange, EventAgentThinking,
	EventLLMRequest, EventLLMResponse, EventLLMError,
	EventToolCall, EventToolResult, EventToolError, EventPermissionDecision,
	EventSessionStart, EventSessionEnd, EventSessionPause, EventSessionResume,
	EventHookExecute, EventHookError,
	EventSystemError, EventSystemWarning,
}

// Valid reports whether t is a recognized event type.
func (t EventType) Valid() bool {
	for _, k := range AllEventTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Status is the outcome recorded on an event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultSessionID is used when no session is known at record time.
const DefaultSessionID = "unknown"

// Event is the envelope for a single recorded action. Every event is an
// independently valid JSON line; events never reference each other, so one
// corrupt line never invalidates its neighbors.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Sequence  uint64         `json:"sequence_number"`
	Type      EventType      `json:"event_type"`
	SessionID string         `json:"session_id"`
	Status    Status         `json:"status"`
	Payload   map[string]any `json:"-"`
}

// EnvelopeFields are the reserved top-level field names. A payload key that
// collides with one of these is dropped at encode time rather than allowed
// to shadow the envelope.
var EnvelopeFields = map[string]bool{
	"timestamp":       true,
	"sequence_number": true,
	"event_type":      true,
	"session_id":      true,
	"status":          true,
}

// Summary is the result of a streaming aggregation pass over stored events.
type Summary struct {
	TotalCount   int            `json:"total_count"`
	ByType       map[string]int `json:"by_type"`
	ByStatus     map[string]int `json:"by_status"`
	ErrorCount   int            `json:"error_count"`
	SessionCount int            `json:"session_count"`
}
