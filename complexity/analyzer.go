package complexity

import (
	"fmt"
	"time"

	"github.com/c360studio/specverify/contract"
)

// Verdict is the analyzer's decision for one goal.
type Verdict int

const (
	// Proceed lets the goal continue to encoding and solving.
	Proceed Verdict = iota
	// Skip stops the goal before the solver is ever invoked.
	Skip
)

// Analysis is the static cost estimate for one goal. It never invokes the
// solver; every number comes from walking the unencoded AST and the
// registered universe sizes.
type Analysis struct {
	EstimatedNodes  int
	QuantifierDepth int

	// Quantifiers counts quantifier nodes across the goal, as opposed to
	// QuantifierDepth which is the deepest nesting.
	Quantifiers int

	LargestUniverse    int
	RecommendedTimeout time.Duration
	Verdict            Verdict
	SkipReason         string
}

// Analyze estimates the cost of encoding and solving a goal. universes maps
// collection names to their instance counts; a quantifier over a known
// universe multiplies its body cost by the universe size, mirroring the
// encoder's bounded expansion.
func Analyze(goal *contract.Goal, universes map[string]int, limits Limits) Analysis {
	nodes, depth, largest, quantifiers := 0, 0, 0, 0
	visit := func(e contract.Expr) {
		n, d, u := estimate(e, universes)
		nodes += n
		if d > depth {
			depth = d
		}
		if u > largest {
			largest = u
		}
		contract.Walk(e, func(x contract.Expr) bool {
			if _, ok := x.(contract.Quantifier); ok {
				quantifiers++
			}
			return true
		})
	}
	for _, a := range goal.Assumptions {
		visit(a)
	}
	visit(goal.Claim)

	a := Analysis{
		EstimatedNodes:     nodes,
		QuantifierDepth:    depth,
		Quantifiers:        quantifiers,
		LargestUniverse:    largest,
		RecommendedTimeout: recommendTimeout(nodes, limits),
	}

	switch {
	case depth > limits.MaxQuantifierDepth:
		a.Verdict = Skip
		a.SkipReason = "quantifier depth exceeded"
	case largest > limits.MaxUniverseSize:
		a.Verdict = Skip
		a.SkipReason = fmt.Sprintf("universe size %d exceeds limit %d", largest, limits.MaxUniverseSize)
	case nodes > limits.MaxNodes:
		a.Verdict = Skip
		a.SkipReason = fmt.Sprintf("estimated node count %d exceeds limit %d", nodes, limits.MaxNodes)
	default:
		a.Verdict = Proceed
	}
	return a
}

// estimate returns (expanded node count, quantifier nesting depth, largest
// universe touched) for one expression.
func estimate(e contract.Expr, universes map[string]int) (int, int, int) {
	if e == nil {
		return 0, 0, 0
	}
	switch x := e.(type) {
	case contract.Quantifier:
		n, d, u := estimate(x.Body, universes)
		if size, ok := universes[x.Collection]; ok {
			// Bounded expansion duplicates the body once per instance.
			if size < 1 {
				size = 1
			}
			if size > u {
				u = size
			}
			return 1 + n*size, d + 1, u
		}
		return 1 + n, d + 1, u
	case contract.Field:
		n, d, u := estimate(x.Entity, universes)
		return 1 + n, d, u
	case contract.Call:
		total, depth, largest := 1, 0, 0
		for _, a := range x.Args {
			n, d, u := estimate(a, universes)
			total += n
			depth = max(depth, d)
			largest = max(largest, u)
		}
		// Aggregates expand over their collection's universe.
		if x.Name == "count" || x.Name == "sum" {
			if len(x.Args) > 0 {
				if ref, ok := x.Args[0].(contract.Ref); ok {
					if size, ok := universes[ref.Name]; ok {
						total += size
						largest = max(largest, size)
					}
				}
			}
		}
		return total, depth, largest
	case contract.Unary:
		n, d, u := estimate(x.Operand, universes)
		return 1 + n, d, u
	case contract.Binary:
		ln, ld, lu := estimate(x.Left, universes)
		rn, rd, ru := estimate(x.Right, universes)
		return 1 + ln + rn, max(ld, rd), max(lu, ru)
	case contract.Cond:
		cn, cd, cu := estimate(x.If, universes)
		tn, td, tu := estimate(x.Then, universes)
		en, ed, eu := estimate(x.Else, universes)
		return 1 + cn + tn + en, max(cd, max(td, ed)), max(cu, max(tu, eu))
	case contract.Let:
		vn, vd, vu := estimate(x.Value, universes)
		bn, bd, bu := estimate(x.Body, universes)
		return 1 + vn + bn, max(vd, bd), max(vu, bu)
	default:
		// Literal, Ref, Unknown.
		return 1, 0, 0
	}
}

// recommendTimeout sizes the solver budget to the estimated cost: small
// goals get a fraction of the configured timeout so a run of many easy goals
// stays fast, and nothing ever exceeds the configured bound.
func recommendTimeout(nodes int, limits Limits) time.Duration {
	if limits.MaxNodes <= 0 || limits.Timeout <= 0 {
		return limits.Timeout
	}
	floor := limits.Timeout / 10
	if floor < 50*time.Millisecond {
		floor = limits.Timeout
	}
	scaled := time.Duration(int64(limits.Timeout) * int64(nodes) / int64(limits.MaxNodes))
	if scaled < floor {
		return floor
	}
	if scaled > limits.Timeout {
		return limits.Timeout
	}
	return scaled
}
