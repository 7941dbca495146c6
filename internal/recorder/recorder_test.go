package recorder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentflight/flightrec/pkg/models"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			lines = append(lines, scanner.Text())
		}
	}
	return lines
}

func TestRecordAppendsValidJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	rec := New(path)
	defer rec.Close()

	id1 := rec.Record(models.EventAgentStart, models.Details{
		AgentName:    "profile_rag_agent",
		InvocationID: "inv-1",
		CallCount:    1,
	})
	id2 := rec.Record(models.EventAgentComplete, models.Details{
		AgentName:            "profile_rag_agent",
		InvocationID:         "inv-1",
		ExecutionTimeSeconds: models.Float64(1.33),
	})

	if id2 != id1+1 {
		t.Errorf("event ids not sequential: %d then %d", id1, id2)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var ev models.Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshaling first line: %v", err)
	}
	if ev.Type != models.EventAgentStart {
		t.Errorf("event type = %s, want agent_start", ev.Type)
	}
	if ev.ExecutionID == "" {
		t.Error("expected a non-empty execution id")
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected a stamped timestamp")
	}
}

func TestStartExecutionRotatesID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	rec := New(path)
	defer rec.Close()

	first := rec.ExecutionID()
	if first == "" {
		t.Fatal("expected an execution id at construction")
	}

	rec.Record(models.EventAgentStart, models.Details{AgentName: "a", InvocationID: "i1"})

	second := rec.StartExecution()
	if second == first {
		t.Error("expected a fresh execution id per run")
	}

	rec.Record(models.EventAgentStart, models.Details{AgentName: "a", InvocationID: "i2"})

	lines := readLines(t, path)
	var ev1, ev2 models.Event
	if err := json.Unmarshal([]byte(lines[0]), &ev1); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &ev2); err != nil {
		t.Fatal(err)
	}
	if ev1.ExecutionID == ev2.ExecutionID {
		t.Error("events from different runs share an execution id")
	}
}

func TestStartExecutionDiscardsStaleTimers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	rec := New(path)
	defer rec.Close()

	rec.Begin("planner", "inv-1")
	rec.StartExecution()

	if _, ok := rec.End("planner", "inv-1"); ok {
		t.Error("expected stale timer entry to be discarded on StartExecution")
	}
}

func TestFallbackOnUnavailableSink(t *testing.T) {
	// A path inside a non-existent directory cannot be opened.
	path := filepath.Join(t.TempDir(), "missing", "events.jsonl")
	var console bytes.Buffer
	rec := New(path, WithConsole(&console))
	defer rec.Close()

	if !rec.Degraded() {
		t.Fatal("expected recorder to start degraded when sink cannot open")
	}

	id1 := rec.Record(models.EventAgentStart, models.Details{AgentName: "a", InvocationID: "i1"})
	id2 := rec.Record(models.EventAgentComplete, models.Details{AgentName: "a", InvocationID: "i1"})
	if id1 != 1 || id2 != 2 {
		t.Errorf("degraded recorder stopped issuing ids: %d, %d", id1, id2)
	}

	out := console.String()
	if !strings.Contains(out, "console-only") {
		t.Error("expected a fallback notice on the console")
	}
	if strings.Count(out, "console-only") != 1 {
		t.Errorf("expected exactly one notice per failure streak, got:\n%s", out)
	}
	if !strings.Contains(out, `"agent_start"`) || !strings.Contains(out, `"agent_complete"`) {
		t.Error("expected degraded events mirrored to the console")
	}
}

func TestFallbackRecoversOnNextRun(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "logs")
	path := filepath.Join(missing, "events.jsonl")

	var console bytes.Buffer
	rec := New(path, WithConsole(&console))
	defer rec.Close()

	if !rec.Degraded() {
		t.Fatal("expected degraded start")
	}

	// Sink becomes available before the next run.
	if err := os.MkdirAll(missing, 0o755); err != nil {
		t.Fatal(err)
	}
	rec.StartExecution()

	if rec.Degraded() {
		t.Fatal("expected recorder to recover once the sink is reachable")
	}

	rec.Record(models.EventAgentStart, models.Details{AgentName: "a", InvocationID: "i1"})
	if len(readLines(t, path)) != 1 {
		t.Error("expected the post-recovery event in the durable stream")
	}
	if !strings.Contains(console.String(), "restored") {
		t.Error("expected a recovery notice on the console")
	}
}

func TestRecordWithInjectedClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	now := time.Date(2025, 3, 10, 9, 0, 0, 500000000, time.UTC)
	rec := New(path, WithClock(func() time.Time { return now }))
	defer rec.Close()

	rec.Record(models.EventStateUpdate, models.Details{AgentName: "a"})

	lines := readLines(t, path)
	var ev models.Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatal(err)
	}
	if !ev.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", ev.Timestamp, now)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	rec := New(path)

	if err := rec.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenSinkClosesPreviousHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	rec := New(path)
	defer rec.Close()

	old := rec.file
	rec.mu.Lock()
	rec.openSink()
	rec.mu.Unlock()

	if err := old.Close(); err == nil {
		t.Error("previous sink handle left open after reopen")
	}
}

func TestWriteFailureClosesStaleHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	var console bytes.Buffer
	rec := New(path, WithConsole(&console))
	defer rec.Close()

	// Swap in a read-only handle so the next append fails.
	ro, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rec.mu.Lock()
	_ = rec.file.Close()
	rec.file = ro
	rec.mu.Unlock()

	rec.Record(models.EventAgentStart, models.Details{AgentName: "a", InvocationID: "i1"})

	if !rec.Degraded() {
		t.Fatal("expected write failure to degrade the recorder")
	}
	rec.mu.Lock()
	stale := rec.file
	rec.mu.Unlock()
	if stale != nil {
		t.Error("failed sink handle retained after degrading")
	}
	if err := ro.Close(); err == nil {
		t.Error("failed sink handle left open after degrading")
	}
}
