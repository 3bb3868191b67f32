package statemachine

import (
	"errors"
	"testing"
)

func TestRunStateMachine(t *testing.T) {
	sm := NewRunStateMachine()
	if err := sm.Transition(RunStatusQueued, RunStatusRunning, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.Transition(RunStatusRunning, RunStatusSucceeded, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := sm.Transition(RunStatusSucceeded, RunStatusRunning, "r1")
	var invalid *InvalidStateTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateTransitionError, got %v", err)
	}
	if !IsTerminal(RunStatusFailed) || IsTerminal(RunStatusRunning) {
		t.Fatalf("unexpected terminal classification")
	}
}

func TestGenerationTracker(t *testing.T) {
	tr := NewGenerationTracker()
	for _, s := range []GenerationState{StateCalling, StateBackoff, StateCalling, StateDone} {
		if err := tr.To(s); err != nil {
			t.Fatalf("transition to %s failed: %v", s, err)
		}
	}
	if tr.State() != StateDone {
		t.Fatalf("expected done, got %s", tr.State())
	}
	if err := tr.To(StateCalling); err == nil {
		t.Fatalf("done must be terminal")
	}
	if got := len(tr.Trail()); got != 5 {
		t.Fatalf("expected 5 states in trail, got %d", got)
	}
}

func TestGenerationTrackerRejectsSkippingCall(t *testing.T) {
	tr := NewGenerationTracker()
	if err := tr.To(StateBackoff); err == nil {
		t.Fatalf("gating -> backoff must be rejected")
	}
	if tr.State() != StateGating {
		t.Fatalf("state must not change on rejected transition")
	}
}
