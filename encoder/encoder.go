package encoder

import (
	"fmt"
	"log/slog"

	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/logic"
)

// maxEncodeDepth bounds structural recursion. The expression model is a DAG
// by invariant; hitting this depth means the invariant was violated upstream.
const maxEncodeDepth = 4096

// Names of the memoized helper symbols for string operations. Declared once
// per context through the idempotent declaration API.
const (
	helperStrLen      = "str_len"
	helperStrContains = "str_contains"
	helperStrStarts   = "str_starts_with"
	helperStrCmp      = "str_cmp"
)

// EncodedGoal is the solver-ready form of one verification goal: the
// assumptions and the negated claim, plus the context that owns every
// declaration and auxiliary axiom the assertions refer to.
type EncodedGoal struct {
	Goal       *contract.Goal
	Ctx        *logic.Context
	Assertions []logic.Expr
}

// Encoder lowers specification expressions into solver formulas.
type Encoder struct {
	logger *slog.Logger
}

// New creates an encoder. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{logger: logger}
}

// EncodeGoal encodes "assumptions imply claim" as the satisfiability query
// assumptions AND NOT claim. The context must be goal-private (cloned from
// the run's base); encoding mutates its declaration tables and axioms.
//
// A surviving statically-unknown value yields an *IndeterminateError; other
// failures yield *EncodingError or *UnsupportedTypeError. All are goal-local.
func (e *Encoder) EncodeGoal(ctx *logic.Context, goal *contract.Goal) (*EncodedGoal, error) {
	if err := goal.Validate(); err != nil {
		return nil, encodingErrf(UnboundReference, "invalid goal: %v", err)
	}

	sc := scope{}
	assertions := make([]logic.Expr, 0, len(goal.Assumptions)+1)
	for i, a := range goal.Assumptions {
		enc, err := e.encodeBool(ctx, sc, a, 0)
		if err != nil {
			return nil, fmt.Errorf("assumption %d: %w", i, err)
		}
		assertions = append(assertions, enc)
	}

	claim, err := e.encodeBool(ctx, sc, goal.Claim, 0)
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	assertions = append(assertions, logic.Not(claim))

	e.logger.Debug("encoded goal",
		slog.String("goal_id", goal.ID),
		slog.Int("assertions", len(assertions)),
		slog.Int("axioms", len(ctx.Axioms())))

	return &EncodedGoal{Goal: goal, Ctx: ctx, Assertions: assertions}, nil
}

// scope maps bound variable names (quantifier and let bindings) to their
// encoded terms.
type scope map[string]logic.Expr

func (s scope) extended(name string, term logic.Expr) scope {
	n := make(scope, len(s)+1)
	for k, v := range s {
		n[k] = v
	}
	n[name] = term
	return n
}

// encodeBool encodes a boolean expression, applying Kleene folding so that
// statically-decided values never reach the solver and uneliminated unknowns
// surface as IndeterminateError.
func (e *Encoder) encodeBool(ctx *logic.Context, sc scope, expr contract.Expr, depth int) (logic.Expr, error) {
	switch staticTruth(expr) {
	case tTrue:
		return logic.True(), nil
	case tFalse:
		return logic.False(), nil
	case tUnknown:
		return nil, &IndeterminateError{Provenance: unknownProvenance(expr)}
	}
	return e.encodeExpr(ctx, sc, expr, depth)
}

// encodeExpr lowers one expression. The variant switch is exhaustive over the
// contract.Expr sum.
func (e *Encoder) encodeExpr(ctx *logic.Context, sc scope, expr contract.Expr, depth int) (logic.Expr, error) {
	if depth > maxEncodeDepth {
		return nil, encodingErrf(CyclicDefinition, "expression nesting exceeds %d; cyclic structure suspected", maxEncodeDepth)
	}
	depth++

	switch x := expr.(type) {
	case contract.Literal:
		return encodeLiteral(ctx, x)

	case contract.Ref:
		if term, ok := sc[x.Name]; ok {
			return term, nil
		}
		return e.declareRef(ctx, x)

	case contract.Unknown:
		// Unknowns inside connectives are folded by encodeBool; one reaching
		// this point cannot be eliminated.
		return nil, &IndeterminateError{Provenance: x.Provenance}

	case contract.Field:
		return e.encodeField(ctx, sc, x, depth)

	case contract.Call:
		return e.encodeCall(ctx, sc, x, depth)

	case contract.Unary:
		return e.encodeUnary(ctx, sc, x, depth)

	case contract.Binary:
		return e.encodeBinary(ctx, sc, x, depth)

	case contract.Cond:
		return e.encodeCond(ctx, sc, x, depth)

	case contract.Quantifier:
		return e.encodeQuantifier(ctx, sc, x, depth)

	case contract.Let:
		if refersTo(x.Value, x.Name) {
			return nil, encodingErrf(CyclicDefinition, "let binding %q refers to itself", x.Name)
		}
		val, err := e.encodeExpr(ctx, sc, x.Value, depth)
		if err != nil {
			return nil, err
		}
		return e.encodeExpr(ctx, sc.extended(x.Name, val), x.Body, depth)

	default:
		return nil, encodingErrf(UnsupportedOperator, "unrecognized expression %T", expr)
	}
}

func encodeLiteral(ctx *logic.Context, lit contract.Literal) (logic.Expr, error) {
	sort, err := MapType(ctx, lit.Type)
	if err != nil {
		return nil, err
	}
	switch lit.Type.Kind {
	case contract.KindBool:
		b, ok := lit.Value.(bool)
		if !ok {
			return nil, encodingErrf(SortMismatch, "bool literal holds %T", lit.Value)
		}
		return logic.Literal{Sort: sort, Value: b}, nil
	case contract.KindInt, contract.KindDate, contract.KindDuration:
		v, ok := lit.Value.(int64)
		if !ok {
			return nil, encodingErrf(SortMismatch, "%s literal holds %T", lit.Type.Kind, lit.Value)
		}
		return logic.Literal{Sort: sort, Value: v}, nil
	case contract.KindDecimal:
		v, ok := lit.Value.(int64)
		if !ok {
			return nil, encodingErrf(SortMismatch, "decimal literal holds %T", lit.Value)
		}
		if ctx.Options().Numeric == logic.DecimalAsScaledInt {
			return logic.Literal{Sort: sort, Value: v}, nil
		}
		return logic.Literal{Sort: sort, Value: formatDecimal(v, lit.Type.Scale)}, nil
	case contract.KindString:
		s, ok := lit.Value.(string)
		if !ok {
			return nil, encodingErrf(SortMismatch, "string literal holds %T", lit.Value)
		}
		return logic.Literal{Sort: sort, Value: s}, nil
	case contract.KindEnum:
		s, ok := lit.Value.(string)
		if !ok {
			return nil, encodingErrf(SortMismatch, "enum literal holds %T", lit.Value)
		}
		if !hasVariant(lit.Type.Variants, s) {
			return nil, encodingErrf(SortMismatch, "enum %s has no variant %q", lit.Type.Name, s)
		}
		return logic.Literal{Sort: sort, Value: enumVariantName(lit.Type.Name, s)}, nil
	default:
		return nil, &UnsupportedTypeError{Type: lit.Type}
	}
}

// declareRef declares a free specification variable as a solver constant on
// first reference and emits its refinement axioms once.
func (e *Encoder) declareRef(ctx *logic.Context, ref contract.Ref) (logic.Expr, error) {
	if ref.Name == "" {
		return nil, encodingErrf(UnboundReference, "reference without a name")
	}
	sort, err := MapType(ctx, ref.Type)
	if err != nil {
		return nil, err
	}
	name := sanitizeName(ref.Name)
	if _, exists := ctx.LookupSymbol(name); !exists {
		sym, err := ctx.DeclareConst(name, sort)
		if err != nil {
			return nil, encodingErrf(SortMismatch, "declare %s: %v", ref.Name, err)
		}
		for _, ax := range rangeAxioms(ctx, ref.Type, logic.Var{Sym: sym}) {
			ctx.AddAxiom(ax)
		}
		return logic.Var{Sym: sym}, nil
	}
	sym, _ := ctx.LookupSymbol(name)
	if !sym.Result.Equal(sort) || sym.Arity() != 0 {
		return nil, encodingErrf(SortMismatch, "reference %s conflicts with prior declaration", ref.Name)
	}
	return logic.Var{Sym: sym}, nil
}

// encodeField lowers entity field access to an application of the entity
// sort's selector function, declared once per (entity, field) pair.
func (e *Encoder) encodeField(ctx *logic.Context, sc scope, f contract.Field, depth int) (logic.Expr, error) {
	entityType := f.Entity.ResultType()
	if entityType.Kind != contract.KindEntity {
		return nil, encodingErrf(SortMismatch, "field %s accessed on non-entity %s", f.Name, entityType)
	}
	entity, err := e.encodeExpr(ctx, sc, f.Entity, depth)
	if err != nil {
		return nil, err
	}
	entitySort, err := MapType(ctx, entityType)
	if err != nil {
		return nil, err
	}
	fieldSort, err := MapType(ctx, f.Type)
	if err != nil {
		return nil, err
	}
	selName := fmt.Sprintf("sel_%s_%s", sanitizeName(entityType.Name), sanitizeName(f.Name))
	sel, err := ctx.DeclareFun(selName, []logic.Sort{entitySort}, fieldSort)
	if err != nil {
		return nil, encodingErrf(SortMismatch, "selector %s: %v", selName, err)
	}
	return logic.Apply{Sym: sel, Args: []logic.Expr{entity}}, nil
}

// encodeCall lowers builtin specification functions. String and date helpers
// are uninterpreted functions memoized by name; aggregates skolemize (see
// quantifier.go).
func (e *Encoder) encodeCall(ctx *logic.Context, sc scope, call contract.Call, depth int) (logic.Expr, error) {
	switch call.Name {
	case "length":
		if len(call.Args) != 1 || call.Args[0].ResultType().Kind != contract.KindString {
			return nil, encodingErrf(SortMismatch, "length expects one string argument")
		}
		arg, err := e.encodeExpr(ctx, sc, call.Args[0], depth)
		if err != nil {
			return nil, err
		}
		sym, err := ctx.DeclareFun(helperStrLen, []logic.Sort{logic.String()}, logic.Int())
		if err != nil {
			return nil, err
		}
		term := logic.Apply{Sym: sym, Args: []logic.Expr{arg}}
		// Lengths are non-negative; asserted once per distinct argument term
		// would over-emit, so the helper carries the axiom per use site.
		ctx.AddAxiom(logic.Binary{Op: logic.OpGe, L: term, R: logic.IntLit(0)})
		return term, nil

	case "contains", "startsWith":
		helper := helperStrContains
		if call.Name == "startsWith" {
			helper = helperStrStarts
		}
		if len(call.Args) != 2 {
			return nil, encodingErrf(SortMismatch, "%s expects two string arguments", call.Name)
		}
		for _, a := range call.Args {
			if a.ResultType().Kind != contract.KindString {
				return nil, encodingErrf(SortMismatch, "%s expects string arguments, got %s", call.Name, a.ResultType())
			}
		}
		l, err := e.encodeExpr(ctx, sc, call.Args[0], depth)
		if err != nil {
			return nil, err
		}
		r, err := e.encodeExpr(ctx, sc, call.Args[1], depth)
		if err != nil {
			return nil, err
		}
		sym, err := ctx.DeclareFun(helper, []logic.Sort{logic.String(), logic.String()}, logic.Bool())
		if err != nil {
			return nil, err
		}
		return logic.Apply{Sym: sym, Args: []logic.Expr{l, r}}, nil

	case "count", "sum":
		return e.encodeAggregate(ctx, sc, call, depth)

	default:
		return nil, encodingErrf(UnsupportedOperator, "builtin %q has no encoding", call.Name)
	}
}

func (e *Encoder) encodeUnary(ctx *logic.Context, sc scope, u contract.Unary, depth int) (logic.Expr, error) {
	switch u.Op {
	case contract.OpNot:
		switch staticTruth(u.Operand) {
		case tTrue:
			return logic.False(), nil
		case tFalse:
			return logic.True(), nil
		case tUnknown:
			return nil, &IndeterminateError{Provenance: unknownProvenance(u.Operand)}
		}
		x, err := e.encodeExpr(ctx, sc, u.Operand, depth)
		if err != nil {
			return nil, err
		}
		return logic.Not(x), nil
	case contract.OpNeg:
		if !u.Operand.ResultType().IsNumeric() {
			return nil, encodingErrf(SortMismatch, "negation of non-numeric %s", u.Operand.ResultType())
		}
		x, err := e.encodeExpr(ctx, sc, u.Operand, depth)
		if err != nil {
			return nil, err
		}
		return logic.Unary{Op: logic.OpNeg, X: x}, nil
	default:
		return nil, encodingErrf(UnsupportedOperator, "unary operator %q", u.Op)
	}
}

func (e *Encoder) encodeBinary(ctx *logic.Context, sc scope, b contract.Binary, depth int) (logic.Expr, error) {
	switch b.Op {
	case contract.OpAnd, contract.OpOr, contract.OpImplies:
		return e.encodeConnective(ctx, sc, b, depth)

	case contract.OpEq, contract.OpNe:
		if err := requireUnknownFree(b.Left, b.Right); err != nil {
			return nil, err
		}
		l, r, err := e.encodePair(ctx, sc, b.Left, b.Right, depth)
		if err != nil {
			return nil, err
		}
		eq := logic.Binary{Op: logic.OpEq, L: l, R: r}
		if b.Op == contract.OpNe {
			return logic.Not(eq), nil
		}
		return eq, nil

	case contract.OpLt, contract.OpLe, contract.OpGt, contract.OpGe:
		return e.encodeComparison(ctx, sc, b, depth)

	case contract.OpAdd, contract.OpSub, contract.OpMul, contract.OpDiv:
		return e.encodeArithmetic(ctx, sc, b, depth)

	default:
		return nil, encodingErrf(UnsupportedOperator, "binary operator %q", b.Op)
	}
}

// encodeConnective applies Kleene folding before recursing, so that a
// statically-decided side disappears and a deciding side wins over an
// unknown one.
func (e *Encoder) encodeConnective(ctx *logic.Context, sc scope, b contract.Binary, depth int) (logic.Expr, error) {
	lt, rt := staticTruth(b.Left), staticTruth(b.Right)

	switch b.Op {
	case contract.OpAnd:
		if lt == tFalse || rt == tFalse {
			return logic.False(), nil
		}
		if lt == tUnknown {
			return nil, &IndeterminateError{Provenance: unknownProvenance(b.Left)}
		}
		if rt == tUnknown {
			return nil, &IndeterminateError{Provenance: unknownProvenance(b.Right)}
		}
		if lt == tTrue {
			return e.encodeExpr(ctx, sc, b.Right, depth)
		}
		if rt == tTrue {
			return e.encodeExpr(ctx, sc, b.Left, depth)
		}
		l, r, err := e.encodePair(ctx, sc, b.Left, b.Right, depth)
		if err != nil {
			return nil, err
		}
		return logic.Binary{Op: logic.OpAnd, L: l, R: r}, nil

	case contract.OpOr:
		if lt == tTrue || rt == tTrue {
			return logic.True(), nil
		}
		if lt == tUnknown {
			return nil, &IndeterminateError{Provenance: unknownProvenance(b.Left)}
		}
		if rt == tUnknown {
			return nil, &IndeterminateError{Provenance: unknownProvenance(b.Right)}
		}
		if lt == tFalse {
			return e.encodeExpr(ctx, sc, b.Right, depth)
		}
		if rt == tFalse {
			return e.encodeExpr(ctx, sc, b.Left, depth)
		}
		l, r, err := e.encodePair(ctx, sc, b.Left, b.Right, depth)
		if err != nil {
			return nil, err
		}
		return logic.Binary{Op: logic.OpOr, L: l, R: r}, nil

	default: // OpImplies
		if lt == tFalse || rt == tTrue {
			return logic.True(), nil
		}
		if lt == tUnknown {
			return nil, &IndeterminateError{Provenance: unknownProvenance(b.Left)}
		}
		if rt == tUnknown {
			return nil, &IndeterminateError{Provenance: unknownProvenance(b.Right)}
		}
		if lt == tTrue {
			return e.encodeExpr(ctx, sc, b.Right, depth)
		}
		if rt == tFalse {
			return e.encodeUnary(ctx, sc, contract.Unary{Op: contract.OpNot, Operand: b.Left}, depth)
		}
		l, r, err := e.encodePair(ctx, sc, b.Left, b.Right, depth)
		if err != nil {
			return nil, err
		}
		return logic.Binary{Op: logic.OpImplies, L: l, R: r}, nil
	}
}

func (e *Encoder) encodeComparison(ctx *logic.Context, sc scope, b contract.Binary, depth int) (logic.Expr, error) {
	if err := requireUnknownFree(b.Left, b.Right); err != nil {
		return nil, err
	}
	lType, rType := b.Left.ResultType(), b.Right.ResultType()

	// String ordering goes through the memoized three-way comparison helper.
	if lType.Kind == contract.KindString && rType.Kind == contract.KindString {
		l, r, err := e.encodePair(ctx, sc, b.Left, b.Right, depth)
		if err != nil {
			return nil, err
		}
		sym, err := ctx.DeclareFun(helperStrCmp, []logic.Sort{logic.String(), logic.String()}, logic.Int())
		if err != nil {
			return nil, err
		}
		cmp := logic.Apply{Sym: sym, Args: []logic.Expr{l, r}}
		return logic.Binary{Op: comparisonOp(b.Op), L: cmp, R: logic.IntLit(0)}, nil
	}

	if !lType.IsNumeric() || !rType.IsNumeric() {
		return nil, encodingErrf(SortMismatch, "%s comparison between %s and %s", b.Op, lType, rType)
	}
	l, r, err := e.encodePair(ctx, sc, b.Left, b.Right, depth)
	if err != nil {
		return nil, err
	}
	return logic.Binary{Op: comparisonOp(b.Op), L: l, R: r}, nil
}

func (e *Encoder) encodeArithmetic(ctx *logic.Context, sc scope, b contract.Binary, depth int) (logic.Expr, error) {
	if err := requireUnknownFree(b.Left, b.Right); err != nil {
		return nil, err
	}
	lType, rType := b.Left.ResultType(), b.Right.ResultType()
	if !lType.IsNumeric() || !rType.IsNumeric() {
		return nil, encodingErrf(SortMismatch, "%s arithmetic between %s and %s", b.Op, lType, rType)
	}
	l, r, err := e.encodePair(ctx, sc, b.Left, b.Right, depth)
	if err != nil {
		return nil, err
	}
	var op logic.Op
	switch b.Op {
	case contract.OpAdd:
		op = logic.OpAdd
	case contract.OpSub:
		op = logic.OpSub
	case contract.OpMul:
		op = logic.OpMul
	case contract.OpDiv:
		if lType.Kind == contract.KindDecimal && ctx.Options().Numeric == logic.DecimalAsReal {
			op = logic.OpRealDiv
		} else {
			op = logic.OpIntDiv
		}
	}
	return logic.Binary{Op: op, L: l, R: r}, nil
}

func (e *Encoder) encodeCond(ctx *logic.Context, sc scope, c contract.Cond, depth int) (logic.Expr, error) {
	switch staticTruth(c.If) {
	case tTrue:
		return e.encodeExpr(ctx, sc, c.Then, depth)
	case tFalse:
		return e.encodeExpr(ctx, sc, c.Else, depth)
	case tUnknown:
		return nil, &IndeterminateError{Provenance: unknownProvenance(c.If)}
	}
	cond, err := e.encodeExpr(ctx, sc, c.If, depth)
	if err != nil {
		return nil, err
	}
	then, err := e.encodeExpr(ctx, sc, c.Then, depth)
	if err != nil {
		return nil, err
	}
	els, err := e.encodeExpr(ctx, sc, c.Else, depth)
	if err != nil {
		return nil, err
	}
	return logic.IfThenElse{Cond: cond, Then: then, Else: els}, nil
}

func (e *Encoder) encodePair(ctx *logic.Context, sc scope, l, r contract.Expr, depth int) (logic.Expr, logic.Expr, error) {
	le, err := e.encodeExpr(ctx, sc, l, depth)
	if err != nil {
		return nil, nil, err
	}
	re, err := e.encodeExpr(ctx, sc, r, depth)
	if err != nil {
		return nil, nil, err
	}
	return le, re, nil
}

// requireUnknownFree rejects non-connective positions that embed a
// statically-unknown value; there is no short circuit that could eliminate
// it there.
func requireUnknownFree(exprs ...contract.Expr) error {
	for _, x := range exprs {
		if containsUnknown(x) {
			return &IndeterminateError{Provenance: unknownProvenance(x)}
		}
	}
	return nil
}

func comparisonOp(op contract.Op) logic.Op {
	switch op {
	case contract.OpLt:
		return logic.OpLt
	case contract.OpLe:
		return logic.OpLe
	case contract.OpGt:
		return logic.OpGt
	default:
		return logic.OpGe
	}
}

func refersTo(e contract.Expr, name string) bool {
	found := false
	contract.Walk(e, func(n contract.Expr) bool {
		if r, ok := n.(contract.Ref); ok && r.Name == name {
			found = true
		}
		return !found
	})
	return found
}

func hasVariant(variants []string, v string) bool {
	for _, x := range variants {
		if x == v {
			return true
		}
	}
	return false
}

func enumVariantName(enumName, variant string) string {
	return sanitizeName(enumName) + "_" + sanitizeName(variant)
}

// formatDecimal renders a scaled integer as a Real literal, e.g. 1234 at
// scale 2 becomes "12.34".
func formatDecimal(scaled int64, scale int) string {
	if scale <= 0 {
		return fmt.Sprintf("%d.0", scaled)
	}
	neg := scaled < 0
	if neg {
		scaled = -scaled
	}
	pow := int64(1)
	for i := 0; i < scale; i++ {
		pow *= 10
	}
	whole, frac := scaled/pow, scaled%pow
	s := fmt.Sprintf("%d.%0*d", whole, scale, frac)
	if neg {
		s = "-" + s
	}
	return s
}

