// Package mcp provides an MCP (Model Context Protocol) server that exposes
// flightrec log analysis as MCP tools, so AI coding assistants can inspect
// the event logs of their own workflow runs.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentflight/flightrec/internal/analyzer"
	"github.com/agentflight/flightrec/pkg/models"
)

// Server wraps the analyzer and exposes it as MCP tools.
type Server struct {
	server *gomcp.Server
	// defaultLog is used when a tool call omits the path argument.
	defaultLog string
}

// NewServer creates a new MCP server. defaultLog may be empty, in which case
// every tool call must supply an explicit path.
func NewServer(defaultLog, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{defaultLog: defaultLog}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "flightrec", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type analyzeLogInput struct {
	Path string `json:"path,omitempty" jsonschema:"path to the JSONL event log. Defaults to the configured stream."`
}

type analyzeLogOutput struct {
	Report           string `json:"report"`
	EventCount       int    `json:"event_count"`
	MalformedCount   int    `json:"malformed_count"`
	UnknownDurations int    `json:"unknown_durations"`
}

type getStatsInput struct {
	Path string `json:"path,omitempty" jsonschema:"path to the JSONL event log. Defaults to the configured stream."`
}

type agentStatsEntry struct {
	AgentName  string   `json:"agent_name"`
	Calls      int      `json:"calls"`
	LLMCalls   int      `json:"llm_calls"`
	ToolCalls  int      `json:"tool_calls"`
	Errors     int      `json:"errors,omitempty"`
	AvgSeconds *float64 `json:"avg_seconds,omitempty"`
	MinSeconds *float64 `json:"min_seconds,omitempty"`
	MaxSeconds *float64 `json:"max_seconds,omitempty"`
}

type getStatsOutput struct {
	Agents         []agentStatsEntry `json:"agents"`
	MalformedCount int               `json:"malformed_count"`
}

type getTimelineInput struct {
	Path  string `json:"path,omitempty" jsonschema:"path to the JSONL event log. Defaults to the configured stream."`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of most recent events to return. 0 returns all."`
}

type timelineEntry struct {
	Timestamp    string `json:"timestamp"`
	ExecutionID  string `json:"execution_id"`
	EventType    string `json:"event_type"`
	AgentName    string `json:"agent_name,omitempty"`
	InvocationID string `json:"invocation_id,omitempty"`
	ToolName     string `json:"tool_name,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
}

type getTimelineOutput struct {
	Events []timelineEntry `json:"events"`
	Total  int             `json:"total"`
}

type getSummaryInput struct {
	Path        string `json:"path,omitempty" jsonschema:"path to the JSONL event log. Defaults to the configured stream."`
	ExecutionID string `json:"execution_id,omitempty" jsonschema:"execution_id to summarize. Defaults to the latest run in the log."`
}

type getSummaryOutput struct {
	ExecutionID      string         `json:"execution_id"`
	WallClockSeconds float64        `json:"wall_clock_seconds"`
	EventCount       int            `json:"event_count"`
	AgentBreakdown   map[string]int `json:"agent_breakdown"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_log",
		Description: "Analyze a workflow event log and return the formatted execution report plus data-quality counters.",
	}, s.handleAnalyzeLog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_agent_statistics",
		Description: "Return per-agent call counts and execution time statistics derived from a workflow event log.",
	}, s.handleGetStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_timeline",
		Description: "Return the chronological event timeline from a workflow event log, most recent last.",
	}, s.handleGetTimeline)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_execution_summary",
		Description: "Return the roll-up of one workflow run: wall-clock span, event count, and per-agent invocation breakdown.",
	}, s.handleGetSummary)
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeLog(_ context.Context, _ *gomcp.CallToolRequest, input analyzeLogInput) (*gomcp.CallToolResult, analyzeLogOutput, error) {
	path, err := s.resolvePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), analyzeLogOutput{}, nil
	}

	analysis, err := analyzer.New().Analyze(path)
	if err != nil {
		return errorResult(fmt.Sprintf("analyzing %s: %s", path, err)), analyzeLogOutput{}, nil
	}

	return nil, analyzeLogOutput{
		Report:           analysis.Report,
		EventCount:       len(analysis.Events),
		MalformedCount:   analysis.MalformedCount,
		UnknownDurations: analysis.UnknownDurations,
	}, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, input getStatsInput) (*gomcp.CallToolResult, getStatsOutput, error) {
	path, err := s.resolvePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), getStatsOutput{}, nil
	}

	a := analyzer.New()
	events, malformed, err := a.Load(path)
	if err != nil {
		return errorResult(fmt.Sprintf("loading %s: %s", path, err)), getStatsOutput{}, nil
	}

	stats := a.AgentStatistics(events)
	out := getStatsOutput{MalformedCount: malformed}
	for _, name := range sortedNames(stats) {
		st := stats[name]
		entry := agentStatsEntry{
			AgentName: name,
			Calls:     st.Calls,
			LLMCalls:  st.LLMCalls,
			ToolCalls: st.ToolCalls,
			Errors:    st.Errors,
		}
		if st.HasTimings() {
			avg, min, max := st.Avg(), st.Min(), st.Max()
			entry.AvgSeconds, entry.MinSeconds, entry.MaxSeconds = &avg, &min, &max
		}
		out.Agents = append(out.Agents, entry)
	}
	return nil, out, nil
}

func (s *Server) handleGetTimeline(_ context.Context, _ *gomcp.CallToolRequest, input getTimelineInput) (*gomcp.CallToolResult, getTimelineOutput, error) {
	path, err := s.resolvePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), getTimelineOutput{}, nil
	}

	a := analyzer.New()
	events, _, err := a.Load(path)
	if err != nil {
		return errorResult(fmt.Sprintf("loading %s: %s", path, err)), getTimelineOutput{}, nil
	}

	timeline := a.Timeline(events)
	out := getTimelineOutput{Total: len(timeline)}

	start := 0
	if input.Limit > 0 && len(timeline) > input.Limit {
		start = len(timeline) - input.Limit
	}
	for _, event := range timeline[start:] {
		out.Events = append(out.Events, timelineEntry{
			Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
			ExecutionID:  event.ExecutionID,
			EventType:    string(event.Type),
			AgentName:    event.Details.AgentName,
			InvocationID: event.Details.InvocationID,
			ToolName:     event.Details.ToolName,
			IsError:      event.Details.IsError,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetSummary(_ context.Context, _ *gomcp.CallToolRequest, input getSummaryInput) (*gomcp.CallToolResult, getSummaryOutput, error) {
	path, err := s.resolvePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), getSummaryOutput{}, nil
	}

	a := analyzer.New()
	events, _, err := a.Load(path)
	if err != nil {
		return errorResult(fmt.Sprintf("loading %s: %s", path, err)), getSummaryOutput{}, nil
	}
	if len(events) == 0 {
		return errorResult(fmt.Sprintf("no events found in %s", path)), getSummaryOutput{}, nil
	}

	summary := a.ExecutionSummary(events, input.ExecutionID)
	return nil, getSummaryOutput{
		ExecutionID:      summary.ExecutionID,
		WallClockSeconds: summary.WallClockSeconds,
		EventCount:       summary.EventCount,
		AgentBreakdown:   summary.AgentBreakdown,
	}, nil
}

// --- Helpers ---

func (s *Server) resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if s.defaultLog != "" {
		return s.defaultLog, nil
	}
	return "", fmt.Errorf("path is required (no default event log configured)")
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
	}
}

func sortedNames(stats map[string]*models.AgentStats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	// Deterministic tool output, same ordering rule as the text report.
	sort.Strings(names)
	return names
}
