package verifier

import "testing"

func TestGoalStateHappyPath(t *testing.T) {
	st := &goalState{}
	for _, next := range []State{StateAnalyzing, StateEncoding, StateSolving, StateSolved, StateDiagnosed} {
		if err := st.advance(next); err != nil {
			t.Fatalf("advance(%s): %v", next, err)
		}
	}
	if !st.current.Terminal() {
		t.Error("diagnosed goal should be terminal")
	}
}

func TestGoalStateSkipPath(t *testing.T) {
	st := &goalState{}
	if err := st.advance(StateAnalyzing); err != nil {
		t.Fatal(err)
	}
	if err := st.advance(StateSkipped); err != nil {
		t.Fatal(err)
	}
	if !st.current.Terminal() {
		t.Error("skipped goal should be terminal")
	}
	// A skipped goal never resumes.
	if err := st.advance(StateEncoding); err == nil {
		t.Error("expected error resuming from skipped")
	}
}

func TestGoalStateRejectsBackwardAndSkippedTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"back to pending", StateAnalyzing, StatePending},
		{"solving back to encoding", StateSolving, StateEncoding},
		{"skip from encoding", StateEncoding, StateSkipped},
		{"jump straight to solved", StatePending, StateSolved},
		{"diagnosed is final", StateDiagnosed, StateAnalyzing},
		{"encoding failure is final", StateEncodingFailed, StateSolving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &goalState{current: tt.from}
			if err := st.advance(tt.to); err == nil {
				t.Errorf("advance(%s -> %s) should fail", tt.from, tt.to)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateSkipped:        true,
		StateEncodingFailed: true,
		StateDiagnosed:      true,
	}
	for s := StatePending; s <= StateDiagnosed; s++ {
		if got := s.Terminal(); got != terminal[s] {
			t.Errorf("%s.Terminal() = %v", s, got)
		}
	}
}
