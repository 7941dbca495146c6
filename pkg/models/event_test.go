package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventTypeValid(t *testing.T) {
	valid := []EventType{
		EventAgentStart, EventAgentComplete, EventAgentError,
		EventLLMCall, EventLLMResponse,
		EventToolCall, EventToolResult,
		EventStateUpdate, EventExecutionSummary,
	}
	for _, et := range valid {
		if !et.Valid() {
			t.Errorf("expected %s to be valid", et)
		}
	}

	for _, et := range []EventType{"", "agent_started", "unknown", "AGENT_START"} {
		if et.Valid() {
			t.Errorf("expected %q to be invalid", et)
		}
	}
}

func TestDetailsRoundTrip(t *testing.T) {
	d := Details{
		AgentName:            "profile_rag_agent",
		InvocationID:         "inv-1",
		CallCount:            3,
		ExecutionTimeSeconds: Float64(1.33),
		StateKeys:            []string{"resume", "profile"},
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshaling details: %v", err)
	}

	var back Details
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshaling details: %v", err)
	}

	if back.AgentName != "profile_rag_agent" {
		t.Errorf("agent name = %q, want profile_rag_agent", back.AgentName)
	}
	if back.CallCount != 3 {
		t.Errorf("call count = %d, want 3", back.CallCount)
	}
	if back.ExecutionTimeSeconds == nil || *back.ExecutionTimeSeconds != 1.33 {
		t.Errorf("execution time = %v, want 1.33", back.ExecutionTimeSeconds)
	}
	if len(back.Extra) != 0 {
		t.Errorf("expected no extra keys, got %v", back.Extra)
	}
}

func TestDetailsExtraPassthrough(t *testing.T) {
	line := `{"agent_name":"scorer","custom_metric":42,"nested":{"a":"b"}}`

	var d Details
	if err := json.Unmarshal([]byte(line), &d); err != nil {
		t.Fatalf("unmarshaling details: %v", err)
	}

	if d.AgentName != "scorer" {
		t.Errorf("agent name = %q, want scorer", d.AgentName)
	}
	if _, ok := d.Extra["custom_metric"]; !ok {
		t.Error("expected custom_metric to survive in Extra")
	}
	if _, ok := d.Extra["nested"]; !ok {
		t.Error("expected nested to survive in Extra")
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("re-marshaling details: %v", err)
	}
	if !strings.Contains(string(data), `"custom_metric":42`) {
		t.Errorf("expected custom_metric in output, got %s", data)
	}
	if !strings.Contains(string(data), `"nested":{"a":"b"}`) {
		t.Errorf("expected nested in output, got %s", data)
	}
}

func TestDetailsExtraDoesNotShadowTypedFields(t *testing.T) {
	d := Details{
		AgentName: "real",
		Extra:     map[string]any{"agent_name": "shadow", "other": 1},
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshaling details: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshaling raw: %v", err)
	}
	if raw["agent_name"] != "real" {
		t.Errorf("agent_name = %v, want the typed field to win", raw["agent_name"])
	}
	if raw["other"] != float64(1) {
		t.Errorf("other = %v, want 1", raw["other"])
	}
}

func TestEventSerializesTimestampWithSubSecondPrecision(t *testing.T) {
	ev := Event{
		Timestamp:   time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC),
		ExecutionID: "exec-1",
		Type:        EventAgentStart,
		Details:     Details{AgentName: "a"},
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	if !strings.Contains(string(data), "12:30:45.123456789") {
		t.Errorf("expected sub-second timestamp, got %s", data)
	}

	var back Event
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshaling event: %v", err)
	}
	if !back.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("timestamp = %v, want %v", back.Timestamp, ev.Timestamp)
	}
}
