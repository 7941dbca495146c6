package models

// AgentStats aggregates the events attributed to one agent. It is a read-time
// projection built by folding over the event stream; it is never persisted.
type AgentStats struct {
	Calls            int       `json:"calls"`
	LLMCalls         int       `json:"llm_calls"`
	ToolCalls        int       `json:"tool_calls"`
	Errors           int       `json:"errors"`
	UnknownDurations int       `json:"unknown_durations"`
	ExecutionTimes   []float64 `json:"execution_times"`
}

// HasTimings reports whether any execution time samples were collected.
// Agents without samples report "no timing data" rather than zeroes.
func (s *AgentStats) HasTimings() bool {
	return len(s.ExecutionTimes) > 0
}

// Avg returns the arithmetic mean of the execution time samples.
// Only meaningful when HasTimings is true.
func (s *AgentStats) Avg() float64 {
	if len(s.ExecutionTimes) == 0 {
		return 0
	}
	var sum float64
	for _, t := range s.ExecutionTimes {
		sum += t
	}
	return sum / float64(len(s.ExecutionTimes))
}

// Min returns the smallest execution time sample.
// Only meaningful when HasTimings is true.
func (s *AgentStats) Min() float64 {
	if len(s.ExecutionTimes) == 0 {
		return 0
	}
	min := s.ExecutionTimes[0]
	for _, t := range s.ExecutionTimes[1:] {
		if t < min {
			min = t
		}
	}
	return min
}

// Max returns the largest execution time sample.
// Only meaningful when HasTimings is true.
func (s *AgentStats) Max() float64 {
	if len(s.ExecutionTimes) == 0 {
		return 0
	}
	max := s.ExecutionTimes[0]
	for _, t := range s.ExecutionTimes[1:] {
		if t > max {
			max = t
		}
	}
	return max
}

// ExecutionSummary is the derived roll-up of one workflow run, computed on
// demand from the events sharing an execution_id.
type ExecutionSummary struct {
	ExecutionID      string         `json:"execution_id"`
	WallClockSeconds float64        `json:"wall_clock_seconds"`
	EventCount       int            `json:"event_count"`
	AgentBreakdown   map[string]int `json:"agent_breakdown"`
}
