package models

import (
	"math"
	"testing"
)

func TestAgentStatsNoTimings(t *testing.T) {
	s := &AgentStats{Calls: 2}

	if s.HasTimings() {
		t.Error("expected HasTimings false with no samples")
	}
	if s.Avg() != 0 || s.Min() != 0 || s.Max() != 0 {
		t.Error("expected zero values for empty sample sequence")
	}
}

func TestAgentStatsDerivedValues(t *testing.T) {
	s := &AgentStats{ExecutionTimes: []float64{1.0, 2.0, 0.5, 1.5}}

	if !s.HasTimings() {
		t.Fatal("expected HasTimings true")
	}
	if got, want := s.Avg(), 1.25; math.Abs(got-want) > 1e-9 {
		t.Errorf("Avg() = %v, want %v", got, want)
	}
	if got := s.Min(); got != 0.5 {
		t.Errorf("Min() = %v, want 0.5", got)
	}
	if got := s.Max(); got != 2.0 {
		t.Errorf("Max() = %v, want 2.0", got)
	}
}

func TestAgentStatsSingleSample(t *testing.T) {
	s := &AgentStats{ExecutionTimes: []float64{1.33}}

	if s.Avg() != 1.33 || s.Min() != 1.33 || s.Max() != 1.33 {
		t.Errorf("single sample: avg=%v min=%v max=%v, want all 1.33", s.Avg(), s.Min(), s.Max())
	}
}
