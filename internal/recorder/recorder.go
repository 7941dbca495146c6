// Package recorder provides the write side of flightrec: a concurrency-safe
// structured event recorder that appends JSONL records to a durable stream,
// the invocation timer used to measure agent, model, and tool durations, and
// the session that carries run state across hook processes.
package recorder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/agentflight/flightrec/pkg/models"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithConsole sets the writer used for the console mirror and for fallback
// output when the durable sink is unavailable. Defaults to os.Stderr.
func WithConsole(w io.Writer) Option {
	return func(r *Recorder) { r.console = w }
}

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) { r.clock = clock }
}

// WithEcho mirrors a one-line summary of every event to the console writer,
// in addition to the durable stream.
func WithEcho(echo bool) Option {
	return func(r *Recorder) { r.echo = echo }
}

// WithSession attaches the run session, which may be file-backed so that
// hook commands in separate processes share one execution id and can match
// each other's timers. Defaults to an in-memory session.
func WithSession(s *Session) Option {
	return func(r *Recorder) { r.session = s }
}

// Recorder serializes events to an append-only JSONL stream. It is the only
// writer-side component; all concurrent instrumentation goes through Record,
// which holds a single mutex across format, append, and flush so one event is
// never interleaved with another writer's bytes.
//
// A Recorder never fails the instrumented workflow. If the durable sink
// cannot be opened or written, it degrades to console-only mode, reports the
// failure once per streak, and keeps accepting events.
type Recorder struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	console io.Writer
	clock   func() time.Time
	echo    bool

	seq      models.EventID
	degraded bool

	session *Session
}

// New creates a Recorder appending to the JSONL file at path. Open failures
// are not fatal: the recorder starts in console-only mode and retries the
// sink on the next StartExecution.
func New(path string, opts ...Option) *Recorder {
	r := &Recorder{
		path:    path,
		console: os.Stderr,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.session == nil {
		r.session = OpenSession("", r.clock)
	}
	r.openSink()
	return r
}

// openSink attempts to open the durable stream, updating degraded state and
// reporting transitions. Caller must hold mu or be the constructor.
func (r *Recorder) openSink() {
	r.closeSink()
	if r.path == "" {
		r.degraded = true
		return
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if !r.degraded {
			fmt.Fprintf(r.console, "flightrec: event log unavailable, continuing console-only: %v\n", err)
		}
		r.degraded = true
		return
	}
	if r.degraded {
		fmt.Fprintf(r.console, "flightrec: event log restored at %s\n", r.path)
	}
	r.degraded = false
	r.file = f
}

// closeSink releases the current file handle, if any. Caller must hold mu or
// be the constructor.
func (r *Recorder) closeSink() {
	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}
}

// Session returns the run session shared by this recorder's events.
func (r *Recorder) Session() *Session {
	return r.session
}

// ExecutionID returns the identifier shared by all events of the current run.
func (r *Recorder) ExecutionID() string {
	return r.session.ExecutionID()
}

// StartExecution begins a new workflow run: it generates a fresh
// execution_id, discards invocation timers and counters left over from the
// previous run, and retries the durable sink if the recorder is degraded. The
// returned id stamps every event recorded until the next StartExecution.
func (r *Recorder) StartExecution() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.session.Rotate()
	if r.degraded {
		r.openSink()
	}
	return id
}

// Started returns the wall-clock start of the current run.
func (r *Recorder) Started() time.Time {
	return r.session.Started()
}

// Record appends one event to the stream, stamping the current time and the
// active execution_id. The returned EventID is a sequence number local to
// this recorder. Write failures degrade the recorder to console-only mode;
// they are never surfaced to the caller.
func (r *Recorder) Record(eventType models.EventType, details models.Details) models.EventID {
	r.mu.Lock()
	defer r.mu.Unlock()

	event := models.Event{
		Timestamp:   r.clock(),
		ExecutionID: r.session.ExecutionID(),
		Type:        eventType,
		Details:     details,
	}
	r.seq++
	id := r.seq

	line, err := json.Marshal(event)
	if err != nil {
		// Unserializable details (e.g. a channel in Extra). Drop the payload
		// but keep the event so counts stay honest.
		event.Details = models.Details{
			AgentName:    details.AgentName,
			InvocationID: details.InvocationID,
			ErrorMessage: fmt.Sprintf("details not serializable: %v", err),
		}
		line, err = json.Marshal(event)
		if err != nil {
			return id
		}
	}
	line = append(line, '\n')

	if !r.degraded && r.file != nil {
		if _, werr := r.file.Write(line); werr != nil {
			fmt.Fprintf(r.console, "flightrec: event log write failed, continuing console-only: %v\n", werr)
			r.closeSink()
			r.degraded = true
		}
	}
	if r.degraded {
		_, _ = r.console.Write(line)
	} else if r.echo {
		fmt.Fprintf(r.console, "[%s] agent=%s invocation=%s\n", eventType, details.AgentName, details.InvocationID)
	}

	return id
}

// Begin stores the start time for an in-flight invocation. A second Begin for
// the same key overwrites the stale entry: last begin wins.
func (r *Recorder) Begin(agentName, invocationID string) {
	r.session.Begin(agentName, invocationID)
}

// End removes the matching timer entry and returns the elapsed time. ok is
// false when no matching Begin exists; the caller should still record the
// event, flagged duration_unknown.
func (r *Recorder) End(agentName, invocationID string) (time.Duration, bool) {
	return r.session.End(agentName, invocationID)
}

// Degraded reports whether the recorder is in console-only fallback mode.
func (r *Recorder) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// Close flushes and closes the durable stream. Safe to call on a degraded
// recorder.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("syncing event log: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	r.file = nil
	return nil
}
