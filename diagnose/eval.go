// Package diagnose turns raw solver outcomes into actionable verdicts:
// counterexample extraction and minimization, unsat analysis, and
// unknown-cause classification, aggregated into a per-run report.
package diagnose

import (
	"github.com/c360studio/specverify/logic"
	"github.com/c360studio/specverify/solver"
)

// evalExpr evaluates a solver formula offline under a variable assignment.
// It returns (value, true) when the assignment determines the value, and
// (nil, false) otherwise — e.g. an unbound variable or an uninterpreted
// function application. Minimization uses this to re-check falsification
// without re-invoking the solver, and it never guesses: indeterminate means
// the reduction is rejected.
func evalExpr(e logic.Expr, bindings solver.RawModel) (any, bool) {
	switch x := e.(type) {
	case logic.Literal:
		return x.Value, true

	case logic.Var:
		v, ok := bindings[x.Sym.Name]
		return v, ok

	case logic.Apply:
		// Uninterpreted applications have no offline value.
		return nil, false

	case logic.Unary:
		v, ok := evalExpr(x.X, bindings)
		if !ok {
			return nil, false
		}
		switch x.Op {
		case logic.OpNot:
			b, ok := v.(bool)
			if !ok {
				return nil, false
			}
			return !b, true
		case logic.OpNeg:
			n, ok := v.(int64)
			if !ok {
				return nil, false
			}
			return -n, true
		default:
			return nil, false
		}

	case logic.Binary:
		return evalBinary(x, bindings)

	case logic.NAry:
		return evalNAry(x, bindings)

	case logic.IfThenElse:
		c, ok := evalExpr(x.Cond, bindings)
		if !ok {
			return nil, false
		}
		cb, ok := c.(bool)
		if !ok {
			return nil, false
		}
		if cb {
			return evalExpr(x.Then, bindings)
		}
		return evalExpr(x.Else, bindings)

	case logic.Let:
		inner := make(solver.RawModel, len(bindings)+len(x.Bindings))
		for k, v := range bindings {
			inner[k] = v
		}
		for _, b := range x.Bindings {
			v, ok := evalExpr(b.Value, bindings)
			if !ok {
				return nil, false
			}
			inner[b.Name] = v
		}
		return evalExpr(x.Body, inner)

	case logic.Quantified:
		// Native quantifiers cannot be decided offline.
		return nil, false

	default:
		return nil, false
	}
}

func evalBinary(b logic.Binary, bindings solver.RawModel) (any, bool) {
	// Short-circuit connectives first: a deciding side wins even when the
	// other side is indeterminate.
	switch b.Op {
	case logic.OpAnd:
		return evalConnective(true, []logic.Expr{b.L, b.R}, bindings)
	case logic.OpOr:
		return evalConnective(false, []logic.Expr{b.L, b.R}, bindings)
	case logic.OpImplies:
		return evalConnective(false, []logic.Expr{logic.Not(b.L), b.R}, bindings)
	}

	l, ok := evalExpr(b.L, bindings)
	if !ok {
		return nil, false
	}
	r, ok := evalExpr(b.R, bindings)
	if !ok {
		return nil, false
	}

	switch b.Op {
	case logic.OpEq:
		return l == r, true
	case logic.OpDistinct:
		return l != r, true
	case logic.OpLt, logic.OpLe, logic.OpGt, logic.OpGe:
		ln, lok := l.(int64)
		rn, rok := r.(int64)
		if !lok || !rok {
			return nil, false
		}
		switch b.Op {
		case logic.OpLt:
			return ln < rn, true
		case logic.OpLe:
			return ln <= rn, true
		case logic.OpGt:
			return ln > rn, true
		default:
			return ln >= rn, true
		}
	case logic.OpAdd, logic.OpSub, logic.OpMul, logic.OpIntDiv:
		ln, lok := l.(int64)
		rn, rok := r.(int64)
		if !lok || !rok {
			return nil, false
		}
		switch b.Op {
		case logic.OpAdd:
			return ln + rn, true
		case logic.OpSub:
			return ln - rn, true
		case logic.OpMul:
			return ln * rn, true
		default:
			if rn == 0 {
				return nil, false
			}
			return ln / rn, true
		}
	default:
		return nil, false
	}
}

func evalNAry(n logic.NAry, bindings solver.RawModel) (any, bool) {
	switch n.Op {
	case logic.OpAnd:
		return evalConnective(true, n.Args, bindings)
	case logic.OpOr:
		return evalConnective(false, n.Args, bindings)
	case logic.OpAdd:
		var sum int64
		for _, a := range n.Args {
			v, ok := evalExpr(a, bindings)
			if !ok {
				return nil, false
			}
			i, ok := v.(int64)
			if !ok {
				return nil, false
			}
			sum += i
		}
		return sum, true
	default:
		return nil, false
	}
}

// evalConnective evaluates an and (conj=true) or or (conj=false) with Kleene
// short-circuiting: one false operand decides a conjunction, one true operand
// decides a disjunction, regardless of indeterminate siblings.
func evalConnective(conj bool, args []logic.Expr, bindings solver.RawModel) (any, bool) {
	sawIndeterminate := false
	for _, a := range args {
		v, ok := evalExpr(a, bindings)
		if !ok {
			sawIndeterminate = true
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return nil, false
		}
		if conj && !b {
			return false, true
		}
		if !conj && b {
			return true, true
		}
	}
	if sawIndeterminate {
		return nil, false
	}
	return conj, true
}

// assertionsHold reports whether every assertion (axioms included)
// definitively evaluates to true under the bindings.
func assertionsHold(q *solver.Query, bindings solver.RawModel) bool {
	for _, ax := range q.Ctx.Axioms() {
		if !holds(ax, bindings) {
			return false
		}
	}
	for _, a := range q.Assertions {
		if !holds(a, bindings) {
			return false
		}
	}
	return true
}

func holds(e logic.Expr, bindings solver.RawModel) bool {
	v, ok := evalExpr(e, bindings)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
