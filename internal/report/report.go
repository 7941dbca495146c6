// Package report renders agent statistics and execution timelines into a
// deterministic human-readable report. Identical input always produces
// byte-identical output: agents are sorted by name, never by discovery order.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentflight/flightrec/pkg/models"
)

const rule = 80

// Input carries everything the formatter needs. MalformedCount and
// UnknownDurations are surfaced prominently when non-zero so data-quality
// issues are never hidden behind an otherwise clean report.
type Input struct {
	Stats            map[string]*models.AgentStats
	Timeline         []models.Event
	MalformedCount   int
	UnknownDurations int

	// SlowAgentSeconds marks agents whose average execution time exceeds the
	// threshold. Zero disables the marker.
	SlowAgentSeconds float64
}

// Render produces the formatted analysis report.
func Render(in Input) string {
	var b strings.Builder

	line := strings.Repeat("=", rule)
	thin := strings.Repeat("-", rule)

	b.WriteString(line + "\n")
	b.WriteString("WORKFLOW EXECUTION ANALYSIS REPORT\n")
	b.WriteString(line + "\n\n")

	fmt.Fprintf(&b, "Total Events:   %d\n", len(in.Timeline))
	fmt.Fprintf(&b, "Total Agents:   %d\n", len(in.Stats))
	if in.MalformedCount > 0 {
		fmt.Fprintf(&b, "Malformed Records: %d  (data integrity issue, investigate the stream)\n", in.MalformedCount)
	}
	if in.UnknownDurations > 0 {
		fmt.Fprintf(&b, "Unknown Durations: %d  (end callbacks with no matching begin)\n", in.UnknownDurations)
	}

	b.WriteString("\n" + thin + "\n")
	b.WriteString("AGENT STATISTICS\n")
	b.WriteString(thin + "\n")

	names := make([]string, 0, len(in.Stats))
	for name := range in.Stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := in.Stats[name]
		fmt.Fprintf(&b, "\n%s:\n", name)
		fmt.Fprintf(&b, "  Calls:      %d\n", s.Calls)
		fmt.Fprintf(&b, "  LLM Calls:  %d\n", s.LLMCalls)
		fmt.Fprintf(&b, "  Tool Calls: %d\n", s.ToolCalls)
		if s.Errors > 0 {
			fmt.Fprintf(&b, "  Errors:     %d\n", s.Errors)
		}
		if s.UnknownDurations > 0 {
			fmt.Fprintf(&b, "  Unknown Durations: %d\n", s.UnknownDurations)
		}
		if !s.HasTimings() {
			b.WriteString("  Execution Time: no timing data\n")
			continue
		}
		slow := ""
		if in.SlowAgentSeconds > 0 && s.Avg() > in.SlowAgentSeconds {
			slow = "  [slow]"
		}
		fmt.Fprintf(&b, "  Avg Execution Time: %.2fs%s\n", s.Avg(), slow)
		fmt.Fprintf(&b, "  Min Execution Time: %.2fs\n", s.Min())
		fmt.Fprintf(&b, "  Max Execution Time: %.2fs\n", s.Max())
	}

	b.WriteString("\n" + line + "\n")
	return b.String()
}

// RenderSummary formats a single-run roll-up.
func RenderSummary(s models.ExecutionSummary) string {
	var b strings.Builder

	line := strings.Repeat("=", rule)
	b.WriteString(line + "\n")
	b.WriteString("EXECUTION SUMMARY\n")
	b.WriteString(line + "\n\n")

	fmt.Fprintf(&b, "Execution ID:  %s\n", s.ExecutionID)
	fmt.Fprintf(&b, "Wall Clock:    %.2fs\n", s.WallClockSeconds)
	fmt.Fprintf(&b, "Total Events:  %d\n", s.EventCount)

	if len(s.AgentBreakdown) > 0 {
		b.WriteString("\nAgent Invocations:\n")
		names := make([]string, 0, len(s.AgentBreakdown))
		for name := range s.AgentBreakdown {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %-32s %d\n", name, s.AgentBreakdown[name])
		}
	}

	b.WriteString("\n" + line + "\n")
	return b.String()
}
