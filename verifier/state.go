package verifier

import "fmt"

// State is one stage of a goal's lifecycle. Goals move strictly forward:
// Pending, Analyzing, then either Skipped or on through Encoding, Solving,
// Solved, and Diagnosed. A goal is processed exactly once; retries require
// resubmitting a fresh goal.
type State int

const (
	StatePending State = iota
	StateAnalyzing
	StateSkipped
	StateEncoding
	StateEncodingFailed
	StateSolving
	StateSolved
	StateDiagnosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAnalyzing:
		return "analyzing"
	case StateSkipped:
		return "skipped"
	case StateEncoding:
		return "encoding"
	case StateEncodingFailed:
		return "encoding_failed"
	case StateSolving:
		return "solving"
	case StateSolved:
		return "solved"
	case StateDiagnosed:
		return "diagnosed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether a goal in this state is done.
func (s State) Terminal() bool {
	return s == StateSkipped || s == StateEncodingFailed || s == StateDiagnosed
}

// transitions lists the permitted successor states.
var transitions = map[State][]State{
	StatePending:   {StateAnalyzing},
	StateAnalyzing: {StateSkipped, StateEncoding},
	StateEncoding:  {StateEncodingFailed, StateSolving},
	StateSolving:   {StateSolved},
	StateSolved:    {StateDiagnosed},
}

// goalState tracks one goal's progress through the pipeline and rejects any
// transition the lifecycle does not allow.
type goalState struct {
	current State
}

func (g *goalState) advance(to State) error {
	for _, next := range transitions[g.current] {
		if next == to {
			g.current = to
			return nil
		}
	}
	return fmt.Errorf("illegal goal state transition %s -> %s", g.current, to)
}
