package diagnose

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/c360studio/specverify/encoder"
	"github.com/c360studio/specverify/logic"
	"github.com/c360studio/specverify/solver"
)

// defaultMinimizeBudget bounds how many removal attempts minimization makes.
// Minimization is best-effort: whatever has been confirmed within the budget
// is returned, never an unverified reduction.
const defaultMinimizeBudget = 128

// Counterexample is a falsifying assignment for one goal. Bindings map
// declared constant names to parsed model values.
type Counterexample struct {
	Bindings map[string]any `json:"bindings"`
}

// Clone returns a deep copy.
func (c *Counterexample) Clone() *Counterexample {
	out := &Counterexample{Bindings: make(map[string]any, len(c.Bindings))}
	for k, v := range c.Bindings {
		out.Bindings[k] = v
	}
	return out
}

// Names returns the bound names in lexicographic order.
func (c *Counterexample) Names() []string {
	names := make([]string, 0, len(c.Bindings))
	for k := range c.Bindings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String renders the bindings as "name = value" lines, sorted by name.
func (c *Counterexample) String() string {
	var b strings.Builder
	for i, name := range c.Names() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s = %v", name, c.Bindings[name])
	}
	return b.String()
}

// extractCounterexample builds a counterexample from a sat model, restricted
// to the variables the claim mentions. When the restriction alone no longer
// determines the falsification (the assumptions constrain variables outside
// the claim), the full model is kept instead: a counterexample that cannot be
// re-checked offline is worse than a larger one that can.
func extractCounterexample(enc *encoder.EncodedGoal, model solver.RawModel) *Counterexample {
	if len(enc.Assertions) == 0 {
		return &Counterexample{Bindings: map[string]any{}}
	}
	query := &solver.Query{Ctx: enc.Ctx, Assertions: enc.Assertions}

	claim := enc.Assertions[len(enc.Assertions)-1]
	relevant := map[string]bool{}
	collectVars(claim, relevant)

	restricted := solver.RawModel{}
	for name, v := range model {
		if relevant[name] {
			restricted[name] = v
		}
	}

	if assertionsHold(query, restricted) {
		return &Counterexample{Bindings: restricted}
	}

	full := solver.RawModel{}
	for name, v := range model {
		full[name] = v
	}
	return &Counterexample{Bindings: full}
}

// minimizeCounterexample greedily drops bindings one at a time, keeping a
// removal only when the reduced assignment still definitively falsifies the
// goal under offline evaluation. Candidate order is lexicographic, so the
// result is deterministic for a given model. The budget caps removal
// attempts; on exhaustion the current confirmed assignment is returned.
func minimizeCounterexample(enc *encoder.EncodedGoal, ce *Counterexample, budget int, logger *slog.Logger) *Counterexample {
	if budget <= 0 {
		budget = defaultMinimizeBudget
	}
	query := &solver.Query{Ctx: enc.Ctx, Assertions: enc.Assertions}

	current := ce.Clone()
	if !assertionsHold(query, current.Bindings) {
		// The starting assignment itself is not offline-checkable (e.g. the
		// falsification hinges on an uninterpreted function). Do not touch it.
		return current
	}

	attempts := 0
	for _, name := range current.Names() {
		if attempts >= budget {
			logger.Debug("counterexample minimization budget exhausted",
				slog.Int("budget", budget),
				slog.Int("remaining_bindings", len(current.Bindings)))
			break
		}
		attempts++

		saved := current.Bindings[name]
		delete(current.Bindings, name)
		if !assertionsHold(query, current.Bindings) {
			current.Bindings[name] = saved
		}
	}
	return current
}

// collectVars records every constant reference in e. Quantifier-bound and
// let-bound names are shadowed out so they never leak into the relevant set.
func collectVars(e logic.Expr, out map[string]bool) {
	collectVarsShadowed(e, out, map[string]bool{})
}

func collectVarsShadowed(e logic.Expr, out map[string]bool, shadow map[string]bool) {
	switch x := e.(type) {
	case logic.Var:
		if !shadow[x.Sym.Name] {
			out[x.Sym.Name] = true
		}
	case logic.Apply:
		for _, a := range x.Args {
			collectVarsShadowed(a, out, shadow)
		}
	case logic.Unary:
		collectVarsShadowed(x.X, out, shadow)
	case logic.Binary:
		collectVarsShadowed(x.L, out, shadow)
		collectVarsShadowed(x.R, out, shadow)
	case logic.NAry:
		for _, a := range x.Args {
			collectVarsShadowed(a, out, shadow)
		}
	case logic.IfThenElse:
		collectVarsShadowed(x.Cond, out, shadow)
		collectVarsShadowed(x.Then, out, shadow)
		collectVarsShadowed(x.Else, out, shadow)
	case logic.Quantified:
		inner := shadowed(shadow)
		for _, b := range x.Bindings {
			inner[b.Sym.Name] = true
		}
		collectVarsShadowed(x.Body, out, inner)
	case logic.Let:
		inner := shadowed(shadow)
		for _, b := range x.Bindings {
			collectVarsShadowed(b.Value, out, shadow)
			inner[b.Name] = true
		}
		collectVarsShadowed(x.Body, out, inner)
	}
}

func shadowed(shadow map[string]bool) map[string]bool {
	inner := make(map[string]bool, len(shadow)+2)
	for k := range shadow {
		inner[k] = true
	}
	return inner
}
