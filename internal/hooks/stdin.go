package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// BeforeAgentInput is the stdin JSON for before-agent hooks.
type BeforeAgentInput struct {
	AgentName    string   `json:"agent_name"`
	InvocationID string   `json:"invocation_id"`
	StateKeys    []string `json:"state_keys,omitempty"`
}

// AfterAgentInput is the stdin JSON for after-agent hooks.
type AfterAgentInput struct {
	AgentName    string `json:"agent_name"`
	InvocationID string `json:"invocation_id"`
	Result       string `json:"result,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BeforeModelInput is the stdin JSON for before-model hooks.
type BeforeModelInput struct {
	AgentName    string `json:"agent_name"`
	InvocationID string `json:"invocation_id"`
	Prompt       string `json:"prompt,omitempty"`
}

// AfterModelInput is the stdin JSON for after-model hooks.
type AfterModelInput struct {
	AgentName    string `json:"agent_name"`
	InvocationID string `json:"invocation_id"`
	Response     string `json:"response,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BeforeToolInput is the stdin JSON for before-tool hooks.
type BeforeToolInput struct {
	AgentName    string         `json:"agent_name"`
	InvocationID string         `json:"invocation_id"`
	ToolName     string         `json:"tool_name"`
	Arguments    map[string]any `json:"arguments,omitempty"`
}

// AfterToolInput is the stdin JSON for after-tool hooks.
type AfterToolInput struct {
	AgentName    string `json:"agent_name"`
	InvocationID string `json:"invocation_id"`
	ToolName     string `json:"tool_name"`
	Result       string `json:"result,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ParseStdin reads JSON from the given reader into a new instance of T.
func ParseStdin[T any](r io.Reader) (*T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) == 0 {
		// Return zero-value struct when no input is provided.
		var zero T
		return &zero, nil
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing stdin JSON: %w", err)
	}
	return &result, nil
}
