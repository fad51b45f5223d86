package encoder

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/logic"
)

func newTestContext() *logic.Context {
	return logic.NewContext(logic.Options{})
}

func intRef(name string) contract.Ref {
	return contract.Ref{Name: name, Type: contract.Int()}
}

func intLit(v int64) contract.Literal {
	return contract.Literal{Type: contract.Int(), Value: v}
}

func boolLit(v bool) contract.Literal {
	return contract.Literal{Type: contract.Bool(), Value: v}
}

func goalWithClaim(claim contract.Expr, assumptions ...contract.Expr) *contract.Goal {
	return &contract.Goal{ID: "g1", Assumptions: assumptions, Claim: claim}
}

func TestEncodeGoalNegatesClaim(t *testing.T) {
	enc := New(nil)
	// assumptions = [x > 0], claim = x >= 1
	goal := goalWithClaim(
		contract.Binary{Op: contract.OpGe, Left: intRef("x"), Right: intLit(1)},
		contract.Binary{Op: contract.OpGt, Left: intRef("x"), Right: intLit(0)},
	)

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)
	require.Len(t, out.Assertions, 2)

	x, ok := out.Ctx.LookupSymbol("x")
	require.True(t, ok, "x should be declared")
	assert.Equal(t, logic.Int(), x.Result)

	want := logic.Binary{Op: logic.OpGt, L: logic.Var{Sym: x}, R: logic.IntLit(0)}
	assert.Equal(t, logic.Expr(want), out.Assertions[0])

	neg, ok := out.Assertions[1].(logic.Unary)
	require.True(t, ok, "claim assertion should be negated")
	assert.Equal(t, logic.OpNot, neg.Op)
}

func TestEncodeGoalRejectsInvalidGoal(t *testing.T) {
	enc := New(nil)
	_, err := enc.EncodeGoal(newTestContext(), &contract.Goal{ID: "g1"})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, UnboundReference, encErr.Kind)
}

func TestKleeneUnknownAndFalseEncodesAsFalse(t *testing.T) {
	enc := New(nil)
	unknown := contract.Unknown{Type: contract.Bool(), Provenance: "external.flag"}

	folded, err := enc.EncodeGoal(newTestContext(),
		goalWithClaim(boolLit(true), contract.Binary{Op: contract.OpAnd, Left: unknown, Right: boolLit(false)}))
	require.NoError(t, err)

	plain, err := enc.EncodeGoal(newTestContext(),
		goalWithClaim(boolLit(true), boolLit(false)))
	require.NoError(t, err)

	if !reflect.DeepEqual(folded.Assertions[0], plain.Assertions[0]) {
		t.Errorf("encode(unknown AND false) = %#v, want %#v", folded.Assertions[0], plain.Assertions[0])
	}
}

func TestKleeneUnknownOrTrueEncodesAsTrue(t *testing.T) {
	enc := New(nil)
	unknown := contract.Unknown{Type: contract.Bool(), Provenance: "external.flag"}

	folded, err := enc.EncodeGoal(newTestContext(),
		goalWithClaim(boolLit(true), contract.Binary{Op: contract.OpOr, Left: unknown, Right: boolLit(true)}))
	require.NoError(t, err)

	plain, err := enc.EncodeGoal(newTestContext(),
		goalWithClaim(boolLit(true), boolLit(true)))
	require.NoError(t, err)

	if !reflect.DeepEqual(folded.Assertions[0], plain.Assertions[0]) {
		t.Errorf("encode(unknown OR true) = %#v, want %#v", folded.Assertions[0], plain.Assertions[0])
	}
}

func TestSurvivingUnknownIsIndeterminate(t *testing.T) {
	enc := New(nil)
	unknown := contract.Unknown{Type: contract.Bool(), Provenance: "external.flag"}

	tests := []struct {
		name  string
		claim contract.Expr
	}{
		{"bare unknown", unknown},
		{"unknown AND true", contract.Binary{Op: contract.OpAnd, Left: unknown, Right: boolLit(true)}},
		{"unknown OR false", contract.Binary{Op: contract.OpOr, Left: unknown, Right: boolLit(false)}},
		{"unknown in comparison", contract.Binary{
			Op:    contract.OpEq,
			Left:  contract.Unknown{Type: contract.Int(), Provenance: "external.count"},
			Right: intLit(1),
		}},
		{"not unknown", contract.Unary{Op: contract.OpNot, Operand: unknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.EncodeGoal(newTestContext(), goalWithClaim(tt.claim))
			var indet *IndeterminateError
			require.ErrorAs(t, err, &indet)
			assert.NotEmpty(t, indet.Provenance)
		})
	}
}

func TestUnknownNextToSymbolicOperandIsIndeterminate(t *testing.T) {
	enc := New(nil)
	unknown := contract.Unknown{Type: contract.Bool(), Provenance: "external.flag"}
	symbolic := contract.Binary{Op: contract.OpGt, Left: intRef("x"), Right: intLit(0)}

	_, err := enc.EncodeGoal(newTestContext(),
		goalWithClaim(contract.Binary{Op: contract.OpAnd, Left: unknown, Right: symbolic}))
	var indet *IndeterminateError
	require.ErrorAs(t, err, &indet)
	assert.Equal(t, "external.flag", indet.Provenance)
}

func TestCyclicLetRejected(t *testing.T) {
	enc := New(nil)
	goal := goalWithClaim(contract.Let{
		Name:  "x",
		Value: contract.Binary{Op: contract.OpAdd, Left: intRef("x"), Right: intLit(1)},
		Body:  contract.Binary{Op: contract.OpGt, Left: intRef("x"), Right: intLit(0)},
	})

	_, err := enc.EncodeGoal(newTestContext(), goal)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, CyclicDefinition, encErr.Kind)
}

func TestLetBindingSubstitutes(t *testing.T) {
	enc := New(nil)
	// let y = x + 1 in y > 0
	goal := goalWithClaim(contract.Let{
		Name:  "y",
		Value: contract.Binary{Op: contract.OpAdd, Left: intRef("x"), Right: intLit(1)},
		Body:  contract.Binary{Op: contract.OpGt, Left: contract.Ref{Name: "y", Type: contract.Int()}, Right: intLit(0)},
	})

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)
	// y must not leak into the declaration table; only x is a real constant.
	_, yDeclared := out.Ctx.LookupSymbol("y")
	assert.False(t, yDeclared)
	_, xDeclared := out.Ctx.LookupSymbol("x")
	assert.True(t, xDeclared)
}

func TestFieldAccessDeclaresSelector(t *testing.T) {
	enc := New(nil)
	order := contract.Ref{Name: "order", Type: contract.Entity("Order")}
	total := contract.Field{Entity: order, Name: "total", Type: contract.Int()}
	goal := goalWithClaim(contract.Binary{Op: contract.OpGe, Left: total, Right: intLit(0)})

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)

	sel, ok := out.Ctx.LookupSymbol("sel_Order_total")
	require.True(t, ok, "selector should be declared")
	assert.Equal(t, 1, sel.Arity())
	assert.Equal(t, logic.Int(), sel.Result)
}

func TestFieldAccessOnNonEntityRejected(t *testing.T) {
	enc := New(nil)
	goal := goalWithClaim(contract.Binary{
		Op:    contract.OpGt,
		Left:  contract.Field{Entity: intRef("x"), Name: "total", Type: contract.Int()},
		Right: intLit(0),
	})

	_, err := enc.EncodeGoal(newTestContext(), goal)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, SortMismatch, encErr.Kind)
}

func TestStringLengthEmitsNonNegativityAxiom(t *testing.T) {
	enc := New(nil)
	name := contract.Ref{Name: "name", Type: contract.String_()}
	goal := goalWithClaim(contract.Binary{
		Op:    contract.OpGt,
		Left:  contract.Call{Name: "length", Args: []contract.Expr{name}, Type: contract.Int()},
		Right: intLit(3),
	})

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)

	_, ok := out.Ctx.LookupSymbol("str_len")
	require.True(t, ok)
	require.NotEmpty(t, out.Ctx.Axioms(), "length should carry a non-negativity axiom")
}

func TestStringComparisonUsesCmpHelper(t *testing.T) {
	enc := New(nil)
	a := contract.Ref{Name: "a", Type: contract.String_()}
	b := contract.Ref{Name: "b", Type: contract.String_()}
	goal := goalWithClaim(contract.Binary{Op: contract.OpLt, Left: a, Right: b})

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)

	cmp, ok := out.Ctx.LookupSymbol("str_cmp")
	require.True(t, ok)
	assert.Equal(t, 2, cmp.Arity())
	assert.Equal(t, logic.Int(), cmp.Result)
}

func TestEnumLiteralUsesPrefixedConstructor(t *testing.T) {
	enc := New(nil)
	status := contract.Enum("OrderStatus", "pending", "paid", "cancelled")
	goal := goalWithClaim(boolLit(true), contract.Binary{
		Op:    contract.OpEq,
		Left:  contract.Ref{Name: "status", Type: status},
		Right: contract.Literal{Type: status, Value: "paid"},
	})

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)

	eq, ok := out.Assertions[0].(logic.Binary)
	require.True(t, ok)
	lit, ok := eq.R.(logic.Literal)
	require.True(t, ok)
	assert.Equal(t, "OrderStatus_paid", lit.Value)
}

func TestEnumLiteralUnknownVariantRejected(t *testing.T) {
	enc := New(nil)
	status := contract.Enum("OrderStatus", "pending", "paid")
	goal := goalWithClaim(contract.Binary{
		Op:    contract.OpEq,
		Left:  contract.Ref{Name: "status", Type: status},
		Right: contract.Literal{Type: status, Value: "refunded"},
	})

	_, err := enc.EncodeGoal(newTestContext(), goal)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, SortMismatch, encErr.Kind)
}

func TestBoundedIntRefEmitsRangeAxioms(t *testing.T) {
	enc := New(nil)
	age := contract.Ref{Name: "age", Type: contract.BoundedInt(0, 150)}
	goal := goalWithClaim(contract.Binary{Op: contract.OpGe, Left: age, Right: intLit(0)})

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)
	assert.Len(t, out.Ctx.Axioms(), 2, "min and max bounds should be emitted")
}

func TestRangeAxiomsEmittedOncePerRef(t *testing.T) {
	enc := New(nil)
	age := contract.Ref{Name: "age", Type: contract.BoundedInt(0, 150)}
	goal := goalWithClaim(
		contract.Binary{Op: contract.OpGe, Left: age, Right: intLit(0)},
		contract.Binary{Op: contract.OpLe, Left: age, Right: intLit(150)},
	)

	out, err := enc.EncodeGoal(newTestContext(), goal)
	require.NoError(t, err)
	assert.Len(t, out.Ctx.Axioms(), 2, "re-referencing must not re-emit bounds")
}

func TestDecimalDivisionOperatorFollowsNumericMode(t *testing.T) {
	price := contract.Ref{Name: "price", Type: contract.Decimal(2)}
	two := contract.Literal{Type: contract.Decimal(2), Value: int64(200)}
	claim := contract.Binary{
		Op:    contract.OpGt,
		Left:  contract.Binary{Op: contract.OpDiv, Left: price, Right: two},
		Right: contract.Literal{Type: contract.Decimal(2), Value: int64(0)},
	}

	enc := New(nil)

	realCtx := logic.NewContext(logic.Options{Numeric: logic.DecimalAsReal})
	out, err := enc.EncodeGoal(realCtx, goalWithClaim(claim))
	require.NoError(t, err)
	gt := out.Assertions[0].(logic.Unary).X.(logic.Binary)
	div := gt.L.(logic.Binary)
	assert.Equal(t, logic.OpRealDiv, div.Op)

	intCtx := logic.NewContext(logic.Options{Numeric: logic.DecimalAsScaledInt})
	out, err = enc.EncodeGoal(intCtx, goalWithClaim(claim))
	require.NoError(t, err)
	gt = out.Assertions[0].(logic.Unary).X.(logic.Binary)
	div = gt.L.(logic.Binary)
	assert.Equal(t, logic.OpIntDiv, div.Op)
}

func TestUnsupportedOperatorRejected(t *testing.T) {
	enc := New(nil)
	goal := goalWithClaim(contract.Binary{Op: contract.Op("xor"), Left: boolLit(true), Right: boolLit(false)})

	_, err := enc.EncodeGoal(newTestContext(), goal)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, UnsupportedOperator, encErr.Kind)
}

func TestBlobRefUnsupported(t *testing.T) {
	enc := New(nil)
	goal := goalWithClaim(contract.Binary{
		Op:    contract.OpEq,
		Left:  contract.Ref{Name: "payload", Type: contract.Blob()},
		Right: contract.Ref{Name: "other", Type: contract.Blob()},
	})

	_, err := enc.EncodeGoal(newTestContext(), goal)
	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		scaled int64
		scale  int
		want   string
	}{
		{1234, 2, "12.34"},
		{-1234, 2, "-12.34"},
		{5, 2, "0.05"},
		{7, 0, "7.0"},
		{0, 3, "0.000"},
	}
	for _, tt := range tests {
		if got := formatDecimal(tt.scaled, tt.scale); got != tt.want {
			t.Errorf("formatDecimal(%d, %d) = %q, want %q", tt.scaled, tt.scale, got, tt.want)
		}
	}
}
