package recorder

import (
	"testing"
	"time"
)

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestTimerBeginEnd(t *testing.T) {
	timer := newInvocationTimer(stepClock(time.Unix(0, 0), time.Second))

	timer.Begin("planner", "inv-1")
	elapsed, ok := timer.End("planner", "inv-1")
	if !ok {
		t.Fatal("expected matching begin")
	}
	if elapsed != time.Second {
		t.Errorf("elapsed = %v, want 1s", elapsed)
	}
	if timer.Len() != 0 {
		t.Errorf("expected entry consumed, %d left", timer.Len())
	}
}

func TestTimerUnmatchedEnd(t *testing.T) {
	timer := newInvocationTimer(time.Now)

	if _, ok := timer.End("planner", "inv-404"); ok {
		t.Error("expected ok=false for an end with no begin")
	}
}

func TestTimerLastBeginWins(t *testing.T) {
	base := time.Unix(100, 0)
	now := base
	timer := newInvocationTimer(func() time.Time { return now })

	timer.Begin("planner", "inv-1")
	now = base.Add(5 * time.Second)
	timer.Begin("planner", "inv-1") // stale entry overwritten
	now = base.Add(6 * time.Second)

	elapsed, ok := timer.End("planner", "inv-1")
	if !ok {
		t.Fatal("expected matching begin")
	}
	if elapsed != time.Second {
		t.Errorf("elapsed = %v, want 1s (measured from the last begin)", elapsed)
	}
}

func TestTimerKeysAreIndependent(t *testing.T) {
	timer := newInvocationTimer(time.Now)

	timer.Begin("planner", "inv-1")
	timer.Begin("planner", "inv-2")
	timer.Begin("scorer", "inv-1")

	if timer.Len() != 3 {
		t.Fatalf("expected 3 independent entries, got %d", timer.Len())
	}

	if _, ok := timer.End("planner", "inv-2"); !ok {
		t.Error("expected (planner, inv-2) entry")
	}
	if _, ok := timer.End("scorer", "inv-1"); !ok {
		t.Error("expected (scorer, inv-1) entry")
	}
	if _, ok := timer.End("planner", "inv-1"); !ok {
		t.Error("expected (planner, inv-1) entry")
	}
}

func TestTimerReset(t *testing.T) {
	timer := newInvocationTimer(time.Now)

	timer.Begin("a", "1")
	timer.Begin("b", "2")
	timer.reset()

	if timer.Len() != 0 {
		t.Errorf("expected empty timer after reset, got %d entries", timer.Len())
	}
}
