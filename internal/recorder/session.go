package recorder

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionFileName is the per-base-path run state file. Each hook command runs
// as its own process, so the state one process needs to finish what another
// started lives here rather than in memory.
const SessionFileName = ".flightrec_session.json"

// sessionState is the serialized form of a Session.
type sessionState struct {
	ExecutionID string         `json:"execution_id"`
	StartedAt   time.Time      `json:"started_at"`
	Timers      []timerEntry   `json:"timers,omitempty"`
	AgentCalls  map[string]int `json:"agent_calls,omitempty"`
	LLMCalls    map[string]int `json:"llm_calls,omitempty"`
	ToolCalls   map[string]int `json:"tool_calls,omitempty"`
}

// Session holds the state of one workflow run: the active execution id, its
// start time, in-flight invocation timers, and per-agent call counters. When
// backed by a state file it is rewritten after every mutation, so a later
// process (the next hook invocation) resumes the run instead of starting a
// new one. An empty path keeps the session in memory only.
//
// Persistence is best effort: a session that cannot be saved or loaded costs
// matched durations and shared execution ids, never the workflow itself.
type Session struct {
	mu    sync.Mutex
	path  string
	clock func() time.Time

	id         string
	started    time.Time
	timers     *InvocationTimer
	agentCalls map[string]int
	llmCalls   map[string]int
	toolCalls  map[string]int
}

// OpenSession loads the session at path, or starts a fresh run when the file
// is absent or unreadable. A nil clock uses time.Now; an empty path keeps the
// session in memory.
func OpenSession(path string, clock func() time.Time) *Session {
	if clock == nil {
		clock = time.Now
	}
	s := &Session{
		path:       path,
		clock:      clock,
		timers:     newInvocationTimer(clock),
		agentCalls: make(map[string]int),
		llmCalls:   make(map[string]int),
		toolCalls:  make(map[string]int),
	}
	if path == "" || !s.load() {
		s.mu.Lock()
		s.rotate()
		s.mu.Unlock()
	}
	return s
}

// ExecutionID returns the identifier shared by all events of the current run.
func (s *Session) ExecutionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Started returns the wall-clock start of the current run.
func (s *Session) Started() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Rotate begins a new run: fresh execution id, new start time, and all
// timers and counters discarded.
func (s *Session) Rotate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotate()
	return s.id
}

// rotate must be called with mu held.
func (s *Session) rotate() {
	s.id = uuid.NewString()
	s.started = s.clock()
	s.timers.reset()
	s.agentCalls = make(map[string]int)
	s.llmCalls = make(map[string]int)
	s.toolCalls = make(map[string]int)
	s.save()
}

// Begin stores the start time for an in-flight invocation.
func (s *Session) Begin(agentName, invocationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers.Begin(agentName, invocationID)
	s.save()
}

// End consumes the matching timer entry and returns the elapsed time. ok is
// false when no matching Begin exists in this run.
func (s *Session) End(agentName, invocationID string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed, ok := s.timers.End(agentName, invocationID)
	if ok {
		s.save()
	}
	return elapsed, ok
}

// NextAgentCall increments and returns the call count for an agent.
func (s *Session) NextAgentCall(agentName string) int {
	return s.next(func() map[string]int { return s.agentCalls }, agentName)
}

// NextLLMCall increments and returns the model call count for an agent.
func (s *Session) NextLLMCall(agentName string) int {
	return s.next(func() map[string]int { return s.llmCalls }, agentName)
}

// NextToolCall increments and returns the call count for a tool.
func (s *Session) NextToolCall(toolName string) int {
	return s.next(func() map[string]int { return s.toolCalls }, toolName)
}

func (s *Session) next(counts func() map[string]int, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := counts()
	m[name]++
	s.save()
	return m[name]
}

// Counts returns copies of the per-agent, per-model, and per-tool call
// counters accumulated in this run.
func (s *Session) Counts() (agents, llm, tools map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounts(s.agentCalls), copyCounts(s.llmCalls), copyCounts(s.toolCalls)
}

// load adopts the persisted state at s.path. Returns false when the file is
// missing, unparsable, or incomplete, in which case the caller starts fresh.
func (s *Session) load() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return false
	}
	if state.ExecutionID == "" || state.StartedAt.IsZero() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = state.ExecutionID
	s.started = state.StartedAt
	s.timers.restore(state.Timers)
	if state.AgentCalls != nil {
		s.agentCalls = state.AgentCalls
	}
	if state.LLMCalls != nil {
		s.llmCalls = state.LLMCalls
	}
	if state.ToolCalls != nil {
		s.toolCalls = state.ToolCalls
	}
	return true
}

// save rewrites the state file. Must be called with mu held. Write failures
// are swallowed: losing the session degrades later events to
// duration_unknown, which is preferable to failing the instrumented run.
func (s *Session) save() {
	if s.path == "" {
		return
	}

	data, err := json.Marshal(sessionState{
		ExecutionID: s.id,
		StartedAt:   s.started,
		Timers:      s.timers.snapshot(),
		AgentCalls:  s.agentCalls,
		LLMCalls:    s.llmCalls,
		ToolCalls:   s.toolCalls,
	})
	if err != nil {
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, s.path)
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
