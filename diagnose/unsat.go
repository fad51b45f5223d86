package diagnose

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/specverify/encoder"
	"github.com/c360studio/specverify/logic"
	"github.com/c360studio/specverify/solver"
)

// UnsatAnalysis qualifies a proved goal. A proof over expanded finite
// universes holds only within those bounds; Exhaustive is true only when no
// universe was truncated and no incompleteness-tagged construct was used.
type UnsatAnalysis struct {
	// BoundedUniverses lists each expanded collection and its instance count.
	BoundedUniverses map[string]int `json:"bounded_universes,omitempty"`

	// Exhaustive reports whether the proof covers the full domain.
	Exhaustive bool `json:"exhaustive"`

	// Caveat is a human-readable qualification for non-exhaustive proofs.
	Caveat string `json:"caveat,omitempty"`

	// CoreAssumptions holds the indices (into the goal's assumption list) of a
	// minimal assumption subset that still proves the claim. Nil when core
	// extraction was not requested or could not complete.
	CoreAssumptions []int `json:"core_assumptions,omitempty"`
}

// analyzeUnsat derives the proof qualification from the encoding context.
func analyzeUnsat(enc *encoder.EncodedGoal) *UnsatAnalysis {
	bounded := enc.Ctx.BoundedUniverses()
	ua := &UnsatAnalysis{Exhaustive: true}
	if len(bounded) > 0 {
		ua.BoundedUniverses = bounded
		ua.Exhaustive = false
		ua.Caveat = boundedCaveat(bounded)
	}
	if enc.Ctx.UsedNativeQuantifier() {
		ua.Exhaustive = false
		msg := "proof relies on solver-specific quantifier instantiation heuristics"
		if ua.Caveat != "" {
			ua.Caveat += "; " + msg
		} else {
			ua.Caveat = msg
		}
	}
	return ua
}

func boundedCaveat(bounded map[string]int) string {
	names := make([]string, 0, len(bounded))
	for n := range bounded {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s (size %d)", n, bounded[n])
	}
	return "proved within bounded universe of " + strings.Join(parts, ", ")
}

// SolveFunc re-solves a derived query during unsat core extraction. The
// orchestrator wires this to the runner so diagnostics never manage a solver
// process directly.
type SolveFunc func(ctx context.Context, q *solver.Query) (solver.Outcome, error)

// extractCore finds a minimal subset of the goal's assumptions that keeps the
// query unsatisfiable, by delta-debugging: drop half the remaining candidates,
// re-solve, and keep the drop when the reduced query is still unsat. Anything
// other than a definitive unsat answer (unknown, refuted, solver error, or a
// cancelled context) aborts extraction and returns nil; a partial core would
// be misleading.
//
// Core extraction is opt-in. Every probe spawns a real solver process, so the
// cost is one goal-sized query per probe.
func extractCore(ctx context.Context, enc *encoder.EncodedGoal, solve SolveFunc) []int {
	n := len(enc.Assertions) - 1 // assumptions precede the negated claim
	if n <= 0 {
		return []int{}
	}

	keep := make([]int, n)
	for i := range keep {
		keep[i] = i
	}

	stillUnsat := func(subset []int) bool {
		if ctx.Err() != nil {
			return false
		}
		assertions := make([]logic.Expr, 0, len(subset)+1)
		for _, idx := range subset {
			assertions = append(assertions, enc.Assertions[idx])
		}
		assertions = append(assertions, enc.Assertions[n])
		out, err := solve(ctx, &solver.Query{Ctx: enc.Ctx, Assertions: assertions})
		return err == nil && out.Status == solver.StatusProved
	}

	// The full assumption set is known unsat from the original solve; start
	// halving from there.
	chunk := (len(keep) + 1) / 2
	for chunk >= 1 {
		reduced := false
		for lo := 0; lo < len(keep); lo += chunk {
			hi := lo + chunk
			if hi > len(keep) {
				hi = len(keep)
			}
			candidate := append(append([]int{}, keep[:lo]...), keep[hi:]...)
			if ctx.Err() != nil {
				return nil
			}
			if stillUnsat(candidate) {
				keep = candidate
				reduced = true
				lo -= chunk
			}
		}
		if chunk == 1 && !reduced {
			break
		}
		if !reduced {
			chunk /= 2
		} else {
			chunk = (len(keep) + 1) / 2
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return keep
}
