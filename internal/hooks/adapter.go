// Package hooks bridges the external agent framework's lifecycle callbacks
// into the event recorder. The Adapter has one method per instrumentation
// point; each before hook starts an invocation timer and each after hook
// consumes it to stamp the recorded event with a measured duration.
package hooks

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/agentflight/flightrec/internal/recorder"
	"github.com/agentflight/flightrec/pkg/models"
)

// previewLen bounds result and message previews stored in event details.
const previewLen = 200

// Timer key namespaces keep agent, model, and tool timings from colliding
// when they share an invocation id.
const (
	modelKeyPrefix = "model:"
	toolKeyPrefix  = "tool:"
)

// Adapter records lifecycle events for one workflow run. Call counters live
// in the recorder's session rather than the adapter, so hook commands running
// one process per event still accumulate counts across invocations.
type Adapter struct {
	rec *recorder.Recorder
}

// NewAdapter creates an Adapter bound to the given recorder.
func NewAdapter(rec *recorder.Recorder) *Adapter {
	return &Adapter{rec: rec}
}

// BeforeAgent is called immediately before an agent starts executing.
func (a *Adapter) BeforeAgent(agentName, invocationID string, stateKeys []string) models.EventID {
	count := a.rec.Session().NextAgentCall(agentName)

	a.rec.Begin(agentName, invocationID)
	return a.rec.Record(models.EventAgentStart, models.Details{
		AgentName:    agentName,
		InvocationID: invocationID,
		CallCount:    count,
		StateKeys:    stateKeys,
	})
}

// AfterAgent is called when an agent finishes. A non-nil err records an
// agent_error event instead of agent_complete. An AfterAgent with no prior
// BeforeAgent records the event with duration_unknown set; it never
// fabricates a zero duration.
func (a *Adapter) AfterAgent(agentName, invocationID, result string, err error) models.EventID {
	elapsed, ok := a.rec.End(agentName, invocationID)

	details := models.Details{
		AgentName:     agentName,
		InvocationID:  invocationID,
		ResultPreview: truncate(result, previewLen),
	}
	applyDuration(&details, elapsed, ok)

	if err != nil {
		details.IsError = true
		details.ErrorMessage = truncate(err.Error(), previewLen)
		return a.rec.Record(models.EventAgentError, details)
	}
	return a.rec.Record(models.EventAgentComplete, details)
}

// BeforeModel is called before each model call made on behalf of an agent.
func (a *Adapter) BeforeModel(agentName, invocationID, prompt string) models.EventID {
	count := a.rec.Session().NextLLMCall(agentName)

	a.rec.Begin(modelKeyPrefix+agentName, invocationID)
	return a.rec.Record(models.EventLLMCall, models.Details{
		AgentName:         agentName,
		InvocationID:      invocationID,
		CallCount:         count,
		PromptLengthChars: len(prompt),
	})
}

// AfterModel is called when a model call returns.
func (a *Adapter) AfterModel(agentName, invocationID, response string, err error) models.EventID {
	elapsed, ok := a.rec.End(modelKeyPrefix+agentName, invocationID)

	details := models.Details{
		AgentName:           agentName,
		InvocationID:        invocationID,
		ResponseLengthChars: len(response),
	}
	applyDuration(&details, elapsed, ok)

	if err != nil {
		details.IsError = true
		details.ErrorMessage = truncate(err.Error(), previewLen)
	}
	return a.rec.Record(models.EventLLMResponse, details)
}

// BeforeTool is called before a tool executes.
func (a *Adapter) BeforeTool(agentName, invocationID, toolName string, args map[string]any) models.EventID {
	count := a.rec.Session().NextToolCall(toolName)

	a.rec.Begin(toolKeyPrefix+toolName, invocationID)
	return a.rec.Record(models.EventToolCall, models.Details{
		AgentName:    agentName,
		InvocationID: invocationID,
		ToolName:     toolName,
		CallCount:    count,
		Extra:        sanitizeArgs(args),
	})
}

// AfterTool is called when a tool execution completes.
func (a *Adapter) AfterTool(agentName, invocationID, toolName, result string, err error) models.EventID {
	elapsed, ok := a.rec.End(toolKeyPrefix+toolName, invocationID)

	details := models.Details{
		AgentName:     agentName,
		InvocationID:  invocationID,
		ToolName:      toolName,
		ResultPreview: truncate(result, previewLen),
	}
	applyDuration(&details, elapsed, ok)

	if err != nil {
		details.IsError = true
		details.ErrorMessage = truncate(err.Error(), previewLen)
	}
	return a.rec.Record(models.EventToolResult, details)
}

// StateUpdate records an ad-hoc state change event.
func (a *Adapter) StateUpdate(agentName, invocationID string, changed map[string]any) models.EventID {
	return a.rec.Record(models.EventStateUpdate, models.Details{
		AgentName:    agentName,
		InvocationID: invocationID,
		Extra:        changed,
	})
}

// Summary records an execution_summary event rolling up the run so far.
func (a *Adapter) Summary() models.EventID {
	agents, llm, tools := a.rec.Session().Counts()

	totalInvocations, totalLLM, totalTools := 0, 0, 0
	for _, c := range agents {
		totalInvocations += c
	}
	for _, c := range llm {
		totalLLM += c
	}
	for _, c := range tools {
		totalTools += c
	}

	elapsed := time.Since(a.rec.Started()).Seconds()
	return a.rec.Record(models.EventExecutionSummary, models.Details{
		TotalExecutionSeconds: models.Float64(round3(elapsed)),
		TotalAgents:           len(agents),
		TotalInvocations:      totalInvocations,
		TotalLLMCalls:         totalLLM,
		TotalToolCalls:        totalTools,
		AgentBreakdown:        agents,
		LLMCallBreakdown:      llm,
		ToolCallBreakdown:     tools,
	})
}

// applyDuration stamps a measured duration, or flags the event as
// duration-unknown when no matching begin existed.
func applyDuration(d *models.Details, elapsed time.Duration, ok bool) {
	if !ok {
		d.DurationUnknown = true
		return
	}
	d.ExecutionTimeSeconds = models.Float64(round3(elapsed.Seconds()))
}

// sanitizeArgs truncates argument values so oversized payloads never bloat
// the stream.
func sanitizeArgs(args map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, 1)
	clean := make(map[string]string, len(args))
	for k, v := range args {
		clean[k] = truncate(fmt.Sprintf("%v", v), 100)
	}
	out["arguments"] = clean
	return out
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
