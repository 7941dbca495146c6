// Package models contains the shared data types for flightrec: the event
// record written to the JSONL stream and the statistics derived from it.
package models

import (
	"encoding/json"
	"time"
)

// EventType identifies what kind of lifecycle event a record describes.
type EventType string

const (
	EventAgentStart       EventType = "agent_start"
	EventAgentComplete    EventType = "agent_complete"
	EventAgentError       EventType = "agent_error"
	EventLLMCall          EventType = "llm_call"
	EventLLMResponse      EventType = "llm_response"
	EventToolCall         EventType = "tool_call"
	EventToolResult       EventType = "tool_result"
	EventStateUpdate      EventType = "state_update"
	EventExecutionSummary EventType = "execution_summary"
)

// eventTypes is the closed vocabulary of valid event types.
var eventTypes = map[EventType]bool{
	EventAgentStart:       true,
	EventAgentComplete:    true,
	EventAgentError:       true,
	EventLLMCall:          true,
	EventLLMResponse:      true,
	EventToolCall:         true,
	EventToolResult:       true,
	EventStateUpdate:      true,
	EventExecutionSummary: true,
}

// Valid reports whether t is one of the fixed event type vocabulary.
func (t EventType) Valid() bool {
	return eventTypes[t]
}

// EventID identifies one recorded event within a single recorder's stream.
// IDs are a monotonically increasing sequence local to the recorder instance;
// they carry no meaning across streams.
type EventID int64

// Event is one immutable record of something that happened during a workflow
// run. Events are serialized one per line (JSONL) to the durable stream.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	ExecutionID string    `json:"execution_id"`
	Type        EventType `json:"event_type"`
	Details     Details   `json:"details"`
}

// Details carries the per-event payload. The recognized keys have named,
// typed fields; anything else round-trips through Extra so custom events and
// forward-compatible fields survive a record/analyze cycle untouched.
type Details struct {
	AgentName            string   `json:"agent_name,omitempty"`
	InvocationID         string   `json:"invocation_id,omitempty"`
	CallCount            int      `json:"call_count,omitempty"`
	ExecutionTimeSeconds *float64 `json:"execution_time_seconds,omitempty"`
	DurationUnknown      bool     `json:"duration_unknown,omitempty"`
	PromptLengthChars    int      `json:"prompt_length_chars,omitempty"`
	ResponseLengthChars  int      `json:"response_length_chars,omitempty"`
	ResultPreview        string   `json:"result_preview,omitempty"`
	ToolName             string   `json:"tool_name,omitempty"`
	IsError              bool     `json:"is_error,omitempty"`
	ErrorMessage         string   `json:"error_message,omitempty"`
	StateKeys            []string `json:"state_keys,omitempty"`

	// execution_summary fields.
	TotalExecutionSeconds *float64       `json:"total_execution_time_seconds,omitempty"`
	TotalAgents           int            `json:"total_agents_called,omitempty"`
	TotalInvocations      int            `json:"total_agent_invocations,omitempty"`
	TotalLLMCalls         int            `json:"total_llm_calls,omitempty"`
	TotalToolCalls        int            `json:"total_tool_calls,omitempty"`
	AgentBreakdown        map[string]int `json:"agent_breakdown,omitempty"`
	LLMCallBreakdown      map[string]int `json:"llm_call_breakdown,omitempty"`
	ToolCallBreakdown     map[string]int `json:"tool_call_breakdown,omitempty"`

	// Extra holds unrecognized detail keys as opaque passthrough.
	Extra map[string]any `json:"-"`
}

// knownDetailKeys lists every key claimed by a typed field above. Keys not in
// this list land in Extra on unmarshal.
var knownDetailKeys = []string{
	"agent_name",
	"invocation_id",
	"call_count",
	"execution_time_seconds",
	"duration_unknown",
	"prompt_length_chars",
	"response_length_chars",
	"result_preview",
	"tool_name",
	"is_error",
	"error_message",
	"state_keys",
	"total_execution_time_seconds",
	"total_agents_called",
	"total_agent_invocations",
	"total_llm_calls",
	"total_tool_calls",
	"agent_breakdown",
	"llm_call_breakdown",
	"tool_call_breakdown",
}

// MarshalJSON flattens Extra into the details object alongside the typed
// fields. Typed fields win on key collision.
func (d Details) MarshalJSON() ([]byte, error) {
	type plain Details
	base, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return base, nil
	}

	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the typed fields and collects every unrecognized key
// into Extra.
func (d *Details) UnmarshalJSON(data []byte) error {
	type plain Details
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownDetailKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*d = Details(p)
	return nil
}

// Float64 returns a pointer to v, for populating optional numeric details.
func Float64(v float64) *float64 {
	return &v
}
