package contract

import "fmt"

// Category classifies what kind of contract clause a goal was derived from.
type Category string

const (
	// CategoryPrecondition marks goals derived from behavior preconditions.
	CategoryPrecondition Category = "precondition"
	// CategoryPostcondition marks goals derived from behavior postconditions.
	CategoryPostcondition Category = "postcondition"
	// CategoryInvariant marks goals derived from entity or system invariants.
	CategoryInvariant Category = "invariant"
)

// SourceLocation points back at the specification clause a goal came from.
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Clause string `json:"clause,omitempty"`
}

// String renders file:line.
func (s SourceLocation) String() string {
	if s.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// Goal is one verification condition: prove that the assumptions imply the
// claim. The solver is asked to satisfy assumptions AND NOT claim; an
// unsatisfiable query proves the goal.
type Goal struct {
	// ID uniquely identifies the goal within one verification run.
	ID string

	// Assumptions are taken as given. Order is part of the goal's identity:
	// serialization preserves it so re-runs are byte-identical.
	Assumptions []Expr

	// Claim is the property to prove under the assumptions.
	Claim Expr

	// Source locates the originating clause.
	Source SourceLocation

	// Category records the contract kind the goal was derived from.
	Category Category
}

// Validate checks the structural requirements every goal must meet before it
// enters the pipeline.
func (g *Goal) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("goal id is required")
	}
	if g.Claim == nil {
		return fmt.Errorf("goal %s: claim is required", g.ID)
	}
	for i, a := range g.Assumptions {
		if a == nil {
			return fmt.Errorf("goal %s: assumption %d is nil", g.ID, i)
		}
	}
	return nil
}
