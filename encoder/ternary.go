package encoder

import "github.com/c360studio/specverify/contract"

// truth is the static truth status of a boolean specification expression,
// computed without any solver involvement. It drives Kleene short-circuiting
// of statically-unknown values.
type truth int

const (
	// tFalse: the expression is statically false.
	tFalse truth = iota
	// tTrue: the expression is statically true.
	tTrue
	// tUnknown: the expression's value depends on a statically-unknown
	// operand that short-circuiting cannot eliminate.
	tUnknown
	// tSymbolic: the value is determined by solver variables; the solver
	// decides it.
	tSymbolic
)

// staticTruth evaluates the Kleene truth status of a boolean expression.
// Connectives follow strong Kleene semantics with tSymbolic treated as "the
// solver will decide": unknown AND false = false, unknown OR true = true,
// and an uneliminated unknown stays unknown.
func staticTruth(e contract.Expr) truth {
	switch x := e.(type) {
	case contract.Literal:
		if b, ok := x.Value.(bool); ok {
			if b {
				return tTrue
			}
			return tFalse
		}
		return tSymbolic
	case contract.Unknown:
		return tUnknown
	case contract.Unary:
		if x.Op == contract.OpNot {
			switch staticTruth(x.Operand) {
			case tTrue:
				return tFalse
			case tFalse:
				return tTrue
			case tUnknown:
				return tUnknown
			default:
				return tSymbolic
			}
		}
		return residualTruth(e)
	case contract.Binary:
		switch x.Op {
		case contract.OpAnd:
			return kleeneAnd(staticTruth(x.Left), staticTruth(x.Right))
		case contract.OpOr:
			return kleeneOr(staticTruth(x.Left), staticTruth(x.Right))
		case contract.OpImplies:
			return kleeneOr(kleeneNot(staticTruth(x.Left)), staticTruth(x.Right))
		default:
			return residualTruth(e)
		}
	case contract.Cond:
		switch staticTruth(x.If) {
		case tTrue:
			return staticTruth(x.Then)
		case tFalse:
			return staticTruth(x.Else)
		case tUnknown:
			thenT, elseT := staticTruth(x.Then), staticTruth(x.Else)
			if thenT == elseT && (thenT == tTrue || thenT == tFalse) {
				return thenT
			}
			return tUnknown
		default:
			return residualTruth(e)
		}
	default:
		return residualTruth(e)
	}
}

// residualTruth handles non-connective expressions: any embedded unknown
// infects the result, otherwise the solver decides.
func residualTruth(e contract.Expr) truth {
	if containsUnknown(e) {
		return tUnknown
	}
	return tSymbolic
}

// containsUnknown reports whether any sub-expression is statically unknown.
func containsUnknown(e contract.Expr) bool {
	found := false
	contract.Walk(e, func(n contract.Expr) bool {
		if _, ok := n.(contract.Unknown); ok {
			found = true
		}
		return !found
	})
	return found
}

// unknownProvenance returns the provenance of the first unknown in e.
func unknownProvenance(e contract.Expr) string {
	prov := ""
	contract.Walk(e, func(n contract.Expr) bool {
		if u, ok := n.(contract.Unknown); ok && prov == "" {
			prov = u.Provenance
		}
		return prov == ""
	})
	return prov
}

func kleeneAnd(a, b truth) truth {
	if a == tFalse || b == tFalse {
		return tFalse
	}
	if a == tUnknown || b == tUnknown {
		return tUnknown
	}
	if a == tSymbolic || b == tSymbolic {
		return tSymbolic
	}
	return tTrue
}

func kleeneOr(a, b truth) truth {
	if a == tTrue || b == tTrue {
		return tTrue
	}
	if a == tUnknown || b == tUnknown {
		return tUnknown
	}
	if a == tSymbolic || b == tSymbolic {
		return tSymbolic
	}
	return tFalse
}

func kleeneNot(a truth) truth {
	switch a {
	case tTrue:
		return tFalse
	case tFalse:
		return tTrue
	default:
		return a
	}
}
