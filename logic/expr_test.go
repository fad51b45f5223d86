package logic

import (
	"reflect"
	"testing"
)

func TestNotCollapsesDoubleNegation(t *testing.T) {
	x := Var{Sym: Symbol{Name: "x", Result: Bool()}}

	negated := Not(x)
	if u, ok := negated.(Unary); !ok || u.Op != OpNot {
		t.Fatalf("Not() = %#v, want unary not", negated)
	}
	if got := Not(negated); !reflect.DeepEqual(got, Expr(x)) {
		t.Errorf("Not(Not(x)) = %#v, want x", got)
	}
}

func TestAndOrArities(t *testing.T) {
	x := Var{Sym: Symbol{Name: "x", Result: Bool()}}
	y := Var{Sym: Symbol{Name: "y", Result: Bool()}}

	if !reflect.DeepEqual(And(), True()) {
		t.Error("empty conjunction should be true")
	}
	if !reflect.DeepEqual(Or(), False()) {
		t.Error("empty disjunction should be false")
	}
	if !reflect.DeepEqual(And(x), Expr(x)) {
		t.Error("single-operand conjunction should be the operand")
	}
	conj, ok := And(x, y).(NAry)
	if !ok || conj.Op != OpAnd || len(conj.Args) != 2 {
		t.Errorf("And(x, y) = %#v", And(x, y))
	}
}

func TestCountNodes(t *testing.T) {
	x := Var{Sym: Symbol{Name: "x", Result: Int()}}

	tests := []struct {
		name string
		expr Expr
		want int
	}{
		{"nil", nil, 0},
		{"leaf", x, 1},
		{"binary", Binary{Op: OpLt, L: x, R: IntLit(0)}, 3},
		{"nary", NAry{Op: OpAnd, Args: []Expr{True(), True(), True()}}, 4},
		{"ite", IfThenElse{Cond: True(), Then: x, Else: IntLit(0)}, 4},
		{
			"let counts bindings and body",
			Let{Bindings: []LetBinding{{Name: "t", Value: x}}, Body: IntLit(1)},
			3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountNodes(tt.expr); got != tt.want {
				t.Errorf("CountNodes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQuantifierCount(t *testing.T) {
	o := Symbol{Name: "o", Result: Uninterpreted("Entity_Order")}
	inner := Quantified{Kind: Exists, Bindings: []Binding{{Sym: o}}, Body: True()}
	outer := Quantified{Kind: Forall, Bindings: []Binding{{Sym: o}}, Body: inner}

	if got := QuantifierCount(outer); got != 2 {
		t.Errorf("QuantifierCount(nested) = %d, want 2", got)
	}
	if got := QuantifierCount(Binary{Op: OpAnd, L: outer, R: True()}); got != 2 {
		t.Errorf("QuantifierCount(under connective) = %d, want 2", got)
	}
	if got := QuantifierCount(True()); got != 0 {
		t.Errorf("QuantifierCount(literal) = %d, want 0", got)
	}
}
