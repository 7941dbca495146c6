package cli

import (
	"strings"
	"testing"
)

func TestSummaryCommandLatestRun(t *testing.T) {
	path := writeFixtureLog(t,
		`{"timestamp":"2025-06-01T10:00:00Z","execution_id":"run-1","event_type":"agent_start","details":{"agent_name":"a","invocation_id":"i1"}}`,
		`{"timestamp":"2025-06-01T11:00:00Z","execution_id":"run-2","event_type":"agent_start","details":{"agent_name":"b","invocation_id":"j1"}}`,
		`{"timestamp":"2025-06-01T11:00:04Z","execution_id":"run-2","event_type":"agent_complete","details":{"agent_name":"b","invocation_id":"j1","execution_time_seconds":4}}`,
	)

	out, err := runRoot(t, "", "summary", path)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "Execution ID:  run-2") {
		t.Errorf("expected the latest run, got:\n%s", out)
	}
	if !strings.Contains(out, "Wall Clock:    4.00s") {
		t.Errorf("wall clock missing:\n%s", out)
	}
}

func TestSummaryCommandExplicitExecution(t *testing.T) {
	path := writeFixtureLog(t,
		`{"timestamp":"2025-06-01T10:00:00Z","execution_id":"run-1","event_type":"agent_start","details":{"agent_name":"a","invocation_id":"i1"}}`,
		`{"timestamp":"2025-06-01T11:00:00Z","execution_id":"run-2","event_type":"agent_start","details":{"agent_name":"b","invocation_id":"j1"}}`,
	)

	defer func() { summaryExecutionID = "" }()
	out, err := runRoot(t, "", "summary", "--execution", "run-1", path)
	if err != nil {
		t.Fatalf("summary --execution: %v", err)
	}
	if !strings.Contains(out, "Execution ID:  run-1") {
		t.Errorf("expected run-1, got:\n%s", out)
	}
}

func TestSummaryCommandUnknownExecutionFails(t *testing.T) {
	path := writeFixtureLog(t,
		`{"timestamp":"2025-06-01T10:00:00Z","execution_id":"run-1","event_type":"agent_start","details":{"agent_name":"a","invocation_id":"i1"}}`,
	)

	defer func() { summaryExecutionID = "" }()
	if _, err := runRoot(t, "", "summary", "--execution", "nope", path); err == nil {
		t.Fatal("expected an error for an unknown execution id")
	}
}

func TestSummaryCommandEmptyLogFails(t *testing.T) {
	path := writeFixtureLog(t, "")
	if _, err := runRoot(t, "", "summary", path); err == nil {
		t.Fatal("expected an error for an empty log")
	}
}
