package contract

import "testing"

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "literal",
			expr: Literal{Type: Int(), Value: int64(42)},
			want: "42",
		},
		{
			name: "ref",
			expr: Ref{Name: "total", Type: Int()},
			want: "total",
		},
		{
			name: "unknown",
			expr: Unknown{Type: Bool(), Provenance: "external:inventory"},
			want: "unknown<external:inventory>",
		},
		{
			name: "field access",
			expr: Field{Entity: Ref{Name: "o", Type: Entity("Order")}, Name: "total", Type: Int()},
			want: "o.total",
		},
		{
			name: "call",
			expr: Call{Name: "length", Args: []Expr{Ref{Name: "s", Type: String_()}}, Type: Int()},
			want: "length(s)",
		},
		{
			name: "binary comparison",
			expr: Binary{Op: OpGt, Left: Ref{Name: "x", Type: Int()}, Right: Literal{Type: Int(), Value: int64(0)}},
			want: "(x gt 0)",
		},
		{
			name: "negated",
			expr: Unary{Op: OpNot, Operand: Ref{Name: "ok", Type: Bool()}},
			want: "not(ok)",
		},
		{
			name: "conditional",
			expr: Cond{
				If:   Ref{Name: "p", Type: Bool()},
				Then: Literal{Type: Int(), Value: int64(1)},
				Else: Literal{Type: Int(), Value: int64(2)},
			},
			want: "if p then 1 else 2",
		},
		{
			name: "quantifier",
			expr: Quantifier{
				Kind:       Forall,
				Var:        "o",
				Collection: "orders",
				ElemType:   Entity("Order"),
				Body:       Ref{Name: "p", Type: Bool()},
			},
			want: "forall o in orders: p",
		},
		{
			name: "let binding",
			expr: Let{
				Name:  "t",
				Value: Ref{Name: "total", Type: Int()},
				Body:  Binary{Op: OpGe, Left: Ref{Name: "t", Type: Int()}, Right: Literal{Type: Int(), Value: int64(0)}},
			},
			want: "let t = total in (t ge 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.expr); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalkVisitsDepthFirst(t *testing.T) {
	expr := Binary{
		Op:    OpAnd,
		Left:  Ref{Name: "a", Type: Bool()},
		Right: Unary{Op: OpNot, Operand: Ref{Name: "b", Type: Bool()}},
	}

	var names []string
	Walk(expr, func(e Expr) bool {
		if r, ok := e.(Ref); ok {
			names = append(names, r.Name)
		}
		return true
	})

	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected refs [a b] in order, got %v", names)
	}
}

func TestWalkPrunes(t *testing.T) {
	expr := Quantifier{
		Kind:       Forall,
		Var:        "o",
		Collection: "orders",
		ElemType:   Entity("Order"),
		Body:       Ref{Name: "inner", Type: Bool()},
	}

	visited := 0
	Walk(expr, func(e Expr) bool {
		visited++
		_, isQuant := e.(Quantifier)
		return !isQuant
	})

	if visited != 1 {
		t.Errorf("expected pruned walk to visit only the quantifier, visited %d nodes", visited)
	}
}

func TestBinaryResultType(t *testing.T) {
	x := Ref{Name: "x", Type: Decimal(2)}
	y := Ref{Name: "y", Type: Decimal(2)}

	arith := Binary{Op: OpAdd, Left: x, Right: y}
	if arith.ResultType().Kind != KindDecimal {
		t.Errorf("arithmetic should keep operand type, got %s", arith.ResultType())
	}

	cmp := Binary{Op: OpLt, Left: x, Right: y}
	if cmp.ResultType().Kind != KindBool {
		t.Errorf("comparison should be boolean, got %s", cmp.ResultType())
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Bool(), "bool"},
		{Decimal(2), "decimal(2)"},
		{Enum("Status", "open", "closed"), "enum(Status)"},
		{Entity("Order"), "entity(Order)"},
		{Collection(Entity("Order")), "collection(entity(Order))"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	for _, typ := range []Type{Int(), Decimal(2), Date(), Duration()} {
		if !typ.IsNumeric() {
			t.Errorf("%s should be numeric", typ)
		}
	}
	for _, typ := range []Type{Bool(), String_(), Entity("Order"), Blob()} {
		if typ.IsNumeric() {
			t.Errorf("%s should not be numeric", typ)
		}
	}
}
