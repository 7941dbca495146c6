// Package analyzer reads a completed or in-progress event stream and derives
// per-agent statistics, a chronological timeline, and a formatted report.
// It is read-only: it never mutates the source stream, and it tolerates
// streams still being appended to or truncated by a crash.
package analyzer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/agentflight/flightrec/internal/report"
	"github.com/agentflight/flightrec/pkg/models"
)

// ErrSourceUnavailable marks a stream that cannot be opened at all. It is
// fatal to the analysis call only; no partial analysis is performed.
var ErrSourceUnavailable = errors.New("event log unavailable")

// maxLineSize bounds a single JSONL record. Tool results carry truncated
// previews, so 1 MiB is generous.
const maxLineSize = 1 << 20

// Analysis is the result of one analyze call: the parsed events plus every
// derived projection, for programmatic use alongside the rendered report.
type Analysis struct {
	Events           []models.Event
	Stats            map[string]*models.AgentStats
	Timeline         []models.Event
	MalformedCount   int
	UnknownDurations int
	Report           string
}

// Analyzer turns an event stream into statistics and reports.
type Analyzer struct {
	// SlowAgentSeconds is forwarded to the report formatter. Zero disables
	// slow-agent markers.
	SlowAgentSeconds float64
}

// New creates an Analyzer with default settings.
func New() *Analyzer {
	return &Analyzer{}
}

// Load reads the JSONL stream at path. Records that fail to parse are
// skipped and counted, never aborting the load. A missing or unopenable file
// is the one terminal failure, reported as ErrSourceUnavailable.
func (a *Analyzer) Load(path string) (events []models.Event, malformed int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: opening %s: %v", ErrSourceUnavailable, path, err)
	}
	defer func() { _ = f.Close() }()

	return a.LoadReader(f)
}

// LoadReader parses events line by line from r, applying the same
// parse-or-skip contract as Load. A line over maxLineSize is skipped and
// counted like any other malformed record; the records after it still load.
func (a *Analyzer) LoadReader(r io.Reader) (events []models.Event, malformed int, err error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var buf []byte
	for {
		chunk, rerr := br.ReadSlice('\n')
		buf = append(buf, chunk...)

		if rerr == bufio.ErrBufferFull {
			if len(buf) <= maxLineSize {
				continue
			}
			// Oversized record. Discard the rest of the line so the tail of
			// the stream is not lost.
			malformed++
			buf = buf[:0]
			rerr = skipLine(br)
			if rerr == io.EOF {
				return events, malformed, nil
			}
			if rerr != nil {
				// Read error mid-stream; the lost tail counts as malformed.
				malformed++
				return events, malformed, nil
			}
			continue
		}

		if line := bytes.TrimSuffix(buf, []byte{'\n'}); len(line) > 0 {
			var event models.Event
			uerr := json.Unmarshal(line, &event)
			if uerr != nil || !event.Type.Valid() || event.Timestamp.IsZero() {
				malformed++
			} else {
				events = append(events, event)
			}
		}
		buf = buf[:0]

		if rerr == io.EOF {
			return events, malformed, nil
		}
		if rerr != nil {
			malformed++
			return events, malformed, nil
		}
	}
}

// skipLine discards input up to and including the next newline.
func skipLine(br *bufio.Reader) error {
	for {
		if _, err := br.ReadSlice('\n'); err != bufio.ErrBufferFull {
			return err
		}
	}
}

// AgentStatistics folds the events into per-agent statistics, grouping by
// details.agent_name. Events without an agent name are excluded from the
// mapping but remain in the timeline.
func (a *Analyzer) AgentStatistics(events []models.Event) map[string]*models.AgentStats {
	stats := make(map[string]*models.AgentStats)

	get := func(name string) *models.AgentStats {
		s, ok := stats[name]
		if !ok {
			s = &models.AgentStats{}
			stats[name] = s
		}
		return s
	}

	// Prepass: which invocations actually started. An agent_complete whose
	// invocation never started still counts as a call, so unmatched-end
	// events are not silently dropped from call totals.
	type invocation struct{ agent, id string }
	started := make(map[invocation]bool)
	for _, event := range events {
		if event.Type == models.EventAgentStart && event.Details.AgentName != "" {
			started[invocation{event.Details.AgentName, event.Details.InvocationID}] = true
		}
	}

	for _, event := range events {
		name := event.Details.AgentName
		if name == "" {
			continue
		}

		switch event.Type {
		case models.EventAgentStart:
			get(name).Calls++
		case models.EventAgentComplete:
			s := get(name)
			if !started[invocation{name, event.Details.InvocationID}] {
				s.Calls++
			}
			if event.Details.DurationUnknown || event.Details.ExecutionTimeSeconds == nil {
				s.UnknownDurations++
				continue
			}
			s.ExecutionTimes = append(s.ExecutionTimes, *event.Details.ExecutionTimeSeconds)
		case models.EventAgentError:
			get(name).Errors++
		case models.EventLLMCall:
			get(name).LLMCalls++
		case models.EventToolCall:
			get(name).ToolCalls++
		}
	}

	return stats
}

// Timeline returns the events in non-decreasing timestamp order. The sort is
// stable, so ties keep their original stream order and repeated calls over
// the same input are byte-identical. The input slice is not modified.
func (a *Analyzer) Timeline(events []models.Event) []models.Event {
	timeline := make([]models.Event, len(events))
	copy(timeline, events)

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})
	return timeline
}

// UnknownDurationCount counts agent_complete events flagged
// duration_unknown, a data-quality signal surfaced in the report.
func (a *Analyzer) UnknownDurationCount(events []models.Event) int {
	count := 0
	for _, event := range events {
		if event.Type == models.EventAgentComplete && event.Details.DurationUnknown {
			count++
		}
	}
	return count
}

// ExecutionSummary rolls up the events belonging to one execution_id: total
// wall-clock span, event count, and per-agent invocation breakdown. An empty
// executionID selects the id of the last event in the stream.
func (a *Analyzer) ExecutionSummary(events []models.Event, executionID string) models.ExecutionSummary {
	if executionID == "" && len(events) > 0 {
		executionID = events[len(events)-1].ExecutionID
	}

	summary := models.ExecutionSummary{
		ExecutionID:    executionID,
		AgentBreakdown: make(map[string]int),
	}

	var scoped []models.Event
	for _, event := range events {
		if event.ExecutionID != executionID {
			continue
		}
		scoped = append(scoped, event)
		if event.Type == models.EventAgentStart && event.Details.AgentName != "" {
			summary.AgentBreakdown[event.Details.AgentName]++
		}
	}
	summary.EventCount = len(scoped)

	if len(scoped) > 0 {
		ordered := a.Timeline(scoped)
		span := ordered[len(ordered)-1].Timestamp.Sub(ordered[0].Timestamp)
		summary.WallClockSeconds = span.Seconds()
	}
	return summary
}

// GenerateReport renders the statistics and timeline through the report
// formatter.
func (a *Analyzer) GenerateReport(stats map[string]*models.AgentStats, timeline []models.Event, malformed, unknownDurations int) string {
	return report.Render(report.Input{
		Stats:            stats,
		Timeline:         timeline,
		MalformedCount:   malformed,
		UnknownDurations: unknownDurations,
		SlowAgentSeconds: a.SlowAgentSeconds,
	})
}

// Analyze is the one-call entry point: load the stream at path and derive
// everything. The returned Analysis carries the parsed events, statistics,
// timeline, data-quality counters, and the rendered report.
func (a *Analyzer) Analyze(path string) (*Analysis, error) {
	events, malformed, err := a.Load(path)
	if err != nil {
		return nil, err
	}

	timeline := a.Timeline(events)
	stats := a.AgentStatistics(events)
	unknown := a.UnknownDurationCount(events)

	return &Analysis{
		Events:           events,
		Stats:            stats,
		Timeline:         timeline,
		MalformedCount:   malformed,
		UnknownDurations: unknown,
		Report:           a.GenerateReport(stats, timeline, malformed, unknown),
	}, nil
}
