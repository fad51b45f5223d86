package encoder

import (
	"fmt"

	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/logic"
)

// encodeQuantifier lowers a quantifier over a named collection.
//
// When the context knows a finite universe for the collection, the quantifier
// becomes a finite conjunction (forall) or disjunction (exists) over the
// universe's instance constants. This trades completeness for decidability:
// the resulting proof holds only within that bound, which the context records
// via MarkBounded so diagnostics can annotate the verdict.
//
// Without a universe, the quantifier is emitted natively with an
// instantiation pattern when one is derivable, and the context is marked so
// an UNSAT result is reported as non-exhaustive.
func (e *Encoder) encodeQuantifier(ctx *logic.Context, sc scope, q contract.Quantifier, depth int) (logic.Expr, error) {
	if q.Var == "" || q.Collection == "" {
		return nil, encodingErrf(UnboundReference, "quantifier requires a variable and a collection")
	}
	elemSort, err := MapType(ctx, q.ElemType)
	if err != nil {
		return nil, err
	}

	if ids, ok := ctx.Universe(q.Collection); ok {
		ctx.MarkBounded(q.Collection, len(ids))
		terms := make([]logic.Expr, 0, len(ids))
		for _, id := range ids {
			inst, err := e.instanceConst(ctx, q.Collection, id, elemSort)
			if err != nil {
				return nil, err
			}
			body, err := e.encodeBool(ctx, sc.extended(q.Var, inst), q.Body, depth)
			if err != nil {
				return nil, err
			}
			terms = append(terms, body)
		}
		if q.Kind == contract.Forall {
			return logic.And(terms...), nil
		}
		return logic.Or(terms...), nil
	}

	// Open domain: native quantifier. The bound symbol is never declared in
	// the context; it exists only under the binder.
	ctx.MarkNativeQuantifier()
	bound := logic.Symbol{Name: fmt.Sprintf("bv_%s_%d", sanitizeName(q.Var), depth), Result: elemSort}
	body, err := e.encodeBool(ctx, sc.extended(q.Var, logic.Var{Sym: bound}), q.Body, depth)
	if err != nil {
		return nil, err
	}

	kind := logic.Forall
	if q.Kind == contract.Exists {
		kind = logic.Exists
	}
	return logic.Quantified{
		Kind:     kind,
		Bindings: []logic.Binding{{Sym: bound}},
		Patterns: collectPatterns(body, bound.Name),
		Body:     body,
	}, nil
}

// encodeAggregate desugars count/sum over a bounded collection into an
// auxiliary constant plus a defining axiom (skolemization), so later formulas
// reuse the aggregate without re-deriving it. The constant's name is
// deterministic, and the axiom is emitted only on first declaration.
func (e *Encoder) encodeAggregate(ctx *logic.Context, sc scope, call contract.Call, depth int) (logic.Expr, error) {
	if len(call.Args) == 0 {
		return nil, encodingErrf(SortMismatch, "%s requires a collection argument", call.Name)
	}
	collRef, ok := call.Args[0].(contract.Ref)
	if !ok || collRef.Type.Kind != contract.KindCollection {
		return nil, encodingErrf(SortMismatch, "%s expects a collection reference", call.Name)
	}
	ids, bounded := ctx.Universe(collRef.Name)
	if !bounded {
		return nil, encodingErrf(UnsupportedOperator,
			"%s over %q: aggregates require a finite entity universe", call.Name, collRef.Name)
	}
	ctx.MarkBounded(collRef.Name, len(ids))

	switch call.Name {
	case "count":
		name := "agg_count_" + sanitizeName(collRef.Name)
		if sym, exists := ctx.LookupSymbol(name); exists {
			return logic.Var{Sym: sym}, nil
		}
		sym, err := ctx.DeclareConst(name, logic.Int())
		if err != nil {
			return nil, err
		}
		ctx.AddAxiom(logic.Binary{Op: logic.OpEq, L: logic.Var{Sym: sym}, R: logic.IntLit(int64(len(ids)))})
		return logic.Var{Sym: sym}, nil

	case "sum":
		if len(call.Args) != 2 {
			return nil, encodingErrf(SortMismatch, "sum expects a collection and a field name")
		}
		fieldLit, ok := call.Args[1].(contract.Literal)
		if !ok || fieldLit.Type.Kind != contract.KindString {
			return nil, encodingErrf(SortMismatch, "sum field selector must be a string literal")
		}
		field := fieldLit.Value.(string)
		elemType := *collRef.Type.Elem
		if elemType.Kind != contract.KindEntity {
			return nil, encodingErrf(SortMismatch, "sum requires an entity collection")
		}
		elemSort, err := MapType(ctx, elemType)
		if err != nil {
			return nil, err
		}
		resultSort, err := MapType(ctx, call.Type)
		if err != nil {
			return nil, err
		}
		selName := fmt.Sprintf("sel_%s_%s", sanitizeName(elemType.Name), sanitizeName(field))
		sel, err := ctx.DeclareFun(selName, []logic.Sort{elemSort}, resultSort)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("agg_sum_%s_%s", sanitizeName(collRef.Name), sanitizeName(field))
		if sym, exists := ctx.LookupSymbol(name); exists {
			return logic.Var{Sym: sym}, nil
		}
		sym, err := ctx.DeclareConst(name, resultSort)
		if err != nil {
			return nil, err
		}
		addends := make([]logic.Expr, 0, len(ids))
		for _, id := range ids {
			inst, err := e.instanceConst(ctx, collRef.Name, id, elemSort)
			if err != nil {
				return nil, err
			}
			addends = append(addends, logic.Apply{Sym: sel, Args: []logic.Expr{inst}})
		}
		var total logic.Expr
		switch len(addends) {
		case 0:
			total = logic.Literal{Sort: resultSort, Value: int64(0)}
		case 1:
			total = addends[0]
		default:
			total = logic.NAry{Op: logic.OpAdd, Args: addends}
		}
		ctx.AddAxiom(logic.Binary{Op: logic.OpEq, L: logic.Var{Sym: sym}, R: total})
		return logic.Var{Sym: sym}, nil

	default:
		return nil, encodingErrf(UnsupportedOperator, "aggregate %q", call.Name)
	}
}

// instanceConst returns the solver constant standing for one universe
// instance, declaring it on first use. Instances of the same universe are
// pairwise distinct by construction of their names; distinctness is not
// asserted because bounded expansion never compares instances for identity.
func (e *Encoder) instanceConst(ctx *logic.Context, collection, id string, sort logic.Sort) (logic.Expr, error) {
	name := fmt.Sprintf("inst_%s_%s", sanitizeName(collection), sanitizeName(id))
	sym, err := ctx.DeclareConst(name, sort)
	if err != nil {
		return nil, encodingErrf(SortMismatch, "universe instance %s/%s: %v", collection, id, err)
	}
	return logic.Var{Sym: sym}, nil
}

// collectPatterns derives instantiation hints for a native quantifier: every
// function application inside the body that mentions the bound variable. The
// first such application is usually the most selective trigger.
func collectPatterns(body logic.Expr, boundName string) []logic.Expr {
	var patterns []logic.Expr
	var walk func(logic.Expr)
	walk = func(x logic.Expr) {
		if len(patterns) > 0 {
			return
		}
		switch t := x.(type) {
		case logic.Apply:
			if mentionsVar(t, boundName) {
				patterns = append(patterns, t)
				return
			}
			for _, a := range t.Args {
				walk(a)
			}
		case logic.Unary:
			walk(t.X)
		case logic.Binary:
			walk(t.L)
			walk(t.R)
		case logic.NAry:
			for _, a := range t.Args {
				walk(a)
			}
		case logic.IfThenElse:
			walk(t.Cond)
			walk(t.Then)
			walk(t.Else)
		case logic.Quantified:
			walk(t.Body)
		case logic.Let:
			for _, b := range t.Bindings {
				walk(b.Value)
			}
			walk(t.Body)
		}
	}
	walk(body)
	return patterns
}

func mentionsVar(e logic.Expr, name string) bool {
	switch t := e.(type) {
	case logic.Var:
		return t.Sym.Name == name
	case logic.Apply:
		for _, a := range t.Args {
			if mentionsVar(a, name) {
				return true
			}
		}
	case logic.Unary:
		return mentionsVar(t.X, name)
	case logic.Binary:
		return mentionsVar(t.L, name) || mentionsVar(t.R, name)
	case logic.NAry:
		for _, a := range t.Args {
			if mentionsVar(a, name) {
				return true
			}
		}
	case logic.IfThenElse:
		return mentionsVar(t.Cond, name) || mentionsVar(t.Then, name) || mentionsVar(t.Else, name)
	case logic.Quantified:
		return mentionsVar(t.Body, name)
	case logic.Let:
		for _, b := range t.Bindings {
			if mentionsVar(b.Value, name) {
				return true
			}
		}
		return mentionsVar(t.Body, name)
	}
	return false
}
