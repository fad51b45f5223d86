package contract

import "fmt"

// Op is a unary or binary operator in a specification expression.
type Op string

// Operators understood by the encoder. Anything else is reported as an
// unsupported-operator encoding failure.
const (
	OpAnd     Op = "and"
	OpOr      Op = "or"
	OpNot     Op = "not"
	OpImplies Op = "implies"
	OpEq      Op = "eq"
	OpNe      Op = "ne"
	OpLt      Op = "lt"
	OpLe      Op = "le"
	OpGt      Op = "gt"
	OpGe      Op = "ge"
	OpAdd     Op = "add"
	OpSub     Op = "sub"
	OpMul     Op = "mul"
	OpDiv     Op = "div"
	OpNeg     Op = "neg"
)

// QuantKind distinguishes universal from existential quantification.
type QuantKind int

const (
	// Forall quantifies universally over a collection.
	Forall QuantKind = iota
	// Exists quantifies existentially over a collection.
	Exists
)

// String returns "forall" or "exists".
func (k QuantKind) String() string {
	if k == Exists {
		return "exists"
	}
	return "forall"
}

// Expr is a typed specification expression. The variant set is closed; the
// encoder matches it exhaustively so an unsupported construct is a
// compile-visible missing arm rather than a runtime surprise.
type Expr interface {
	// ResultType is the static type of the expression's value.
	ResultType() Type
	isExpr()
}

// Literal is a constant value of a known type. Value holds bool for KindBool,
// int64 for KindInt/KindDate/KindDuration and scaled KindDecimal, and string
// for KindString and KindEnum (the variant name).
type Literal struct {
	Type  Type
	Value any
}

// Ref is a reference to a declared input, output, or bound variable.
type Ref struct {
	Name string
	Type Type
}

// Unknown is a statically-unknown value, typically an unbound external
// reference. Provenance records where the unknown came from so diagnostics
// can explain an Unknown verdict.
type Unknown struct {
	Type       Type
	Provenance string
}

// Field is field access on an entity-typed expression.
type Field struct {
	Entity Expr
	Name   string
	Type   Type
}

// Call applies a builtin specification function, e.g. "length", "contains",
// "count", "sum".
type Call struct {
	Name string
	Args []Expr
	Type Type
}

// Unary applies a unary operator.
type Unary struct {
	Op      Op
	Operand Expr
}

// Binary applies a binary operator.
type Binary struct {
	Op          Op
	Left, Right Expr
}

// Cond is a conditional expression (if/then/else).
type Cond struct {
	If, Then, Else Expr
}

// Quantifier quantifies Var over the named collection. When the verification
// context knows a finite universe for Collection, the encoder expands the
// quantifier over that universe; otherwise it falls back to a native solver
// quantifier and the proof is tagged non-exhaustive.
type Quantifier struct {
	Kind       QuantKind
	Var        string
	Collection string
	ElemType   Type
	Body       Expr
}

// Let binds Name to Value within Body.
type Let struct {
	Name  string
	Value Expr
	Body  Expr
}

func (l Literal) ResultType() Type    { return l.Type }
func (r Ref) ResultType() Type        { return r.Type }
func (u Unknown) ResultType() Type    { return u.Type }
func (f Field) ResultType() Type      { return f.Type }
func (c Call) ResultType() Type       { return c.Type }
func (u Unary) ResultType() Type      { return u.Operand.ResultType() }
func (q Quantifier) ResultType() Type { return Bool() }
func (l Let) ResultType() Type        { return l.Body.ResultType() }
func (c Cond) ResultType() Type       { return c.Then.ResultType() }

// ResultType of a binary expression follows the operator: comparisons and
// connectives are boolean, arithmetic keeps the left operand's type.
func (b Binary) ResultType() Type {
	switch b.Op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return b.Left.ResultType()
	default:
		return Bool()
	}
}

func (Literal) isExpr()    {}
func (Ref) isExpr()        {}
func (Unknown) isExpr()    {}
func (Field) isExpr()      {}
func (Call) isExpr()       {}
func (Unary) isExpr()      {}
func (Binary) isExpr()     {}
func (Cond) isExpr()       {}
func (Quantifier) isExpr() {}
func (Let) isExpr()        {}

// Walk calls fn for e and every sub-expression in depth-first order. fn
// returning false prunes the walk below that node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch x := e.(type) {
	case Field:
		Walk(x.Entity, fn)
	case Call:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	case Unary:
		Walk(x.Operand, fn)
	case Binary:
		Walk(x.Left, fn)
		Walk(x.Right, fn)
	case Cond:
		Walk(x.If, fn)
		Walk(x.Then, fn)
		Walk(x.Else, fn)
	case Quantifier:
		Walk(x.Body, fn)
	case Let:
		Walk(x.Value, fn)
		Walk(x.Body, fn)
	}
}

// Describe renders a short human-readable form of the expression for log
// output and evidence records. It is not a parseable syntax.
func Describe(e Expr) string {
	switch x := e.(type) {
	case Literal:
		return fmt.Sprintf("%v", x.Value)
	case Ref:
		return x.Name
	case Unknown:
		return fmt.Sprintf("unknown<%s>", x.Provenance)
	case Field:
		return fmt.Sprintf("%s.%s", Describe(x.Entity), x.Name)
	case Call:
		args := ""
		for i, a := range x.Args {
			if i > 0 {
				args += ", "
			}
			args += Describe(a)
		}
		return fmt.Sprintf("%s(%s)", x.Name, args)
	case Unary:
		return fmt.Sprintf("%s(%s)", x.Op, Describe(x.Operand))
	case Binary:
		return fmt.Sprintf("(%s %s %s)", Describe(x.Left), x.Op, Describe(x.Right))
	case Cond:
		return fmt.Sprintf("if %s then %s else %s", Describe(x.If), Describe(x.Then), Describe(x.Else))
	case Quantifier:
		return fmt.Sprintf("%s %s in %s: %s", x.Kind, x.Var, x.Collection, Describe(x.Body))
	case Let:
		return fmt.Sprintf("let %s = %s in %s", x.Name, Describe(x.Value), Describe(x.Body))
	default:
		return "?"
	}
}
