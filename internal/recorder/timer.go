package recorder

import (
	"sync"
	"time"
)

// invocationKey pairs an agent name with an invocation id. At most one live
// timer exists per key at a time.
type invocationKey struct {
	agent      string
	invocation string
}

// InvocationTimer maps in-flight invocations to their start times so the
// matching end callback can compute a duration. Entries are created by Begin,
// consumed by End, and discarded wholesale when a new execution starts, so
// unmatched begins cannot accumulate across runs.
type InvocationTimer struct {
	mu      sync.Mutex
	clock   func() time.Time
	entries map[invocationKey]time.Time
}

func newInvocationTimer(clock func() time.Time) *InvocationTimer {
	return &InvocationTimer{
		clock:   clock,
		entries: make(map[invocationKey]time.Time),
	}
}

// Begin records the start time for the given key, overwriting any stale
// entry: last begin wins.
func (t *InvocationTimer) Begin(agentName, invocationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[invocationKey{agentName, invocationID}] = t.clock()
}

// End removes the entry for the given key and returns the elapsed time since
// Begin. ok is false when no matching Begin exists; the duration is then
// unknown, never fabricated as zero.
func (t *InvocationTimer) End(agentName, invocationID string) (elapsed time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := invocationKey{agentName, invocationID}
	start, ok := t.entries[key]
	if !ok {
		return 0, false
	}
	delete(t.entries, key)
	return t.clock().Sub(start), true
}

// Len returns the number of in-flight entries.
func (t *InvocationTimer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// reset discards all in-flight entries.
func (t *InvocationTimer) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[invocationKey]time.Time)
}

// timerEntry is the serialized form of one in-flight invocation, used when a
// session persists its timers across hook processes.
type timerEntry struct {
	Agent      string    `json:"agent"`
	Invocation string    `json:"invocation"`
	StartedAt  time.Time `json:"started_at"`
}

func (t *InvocationTimer) snapshot() []timerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]timerEntry, 0, len(t.entries))
	for key, started := range t.entries {
		entries = append(entries, timerEntry{
			Agent:      key.agent,
			Invocation: key.invocation,
			StartedAt:  started,
		})
	}
	return entries
}

func (t *InvocationTimer) restore(entries []timerEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[invocationKey]time.Time, len(entries))
	for _, e := range entries {
		t.entries[invocationKey{e.Agent, e.Invocation}] = e.StartedAt
	}
}
