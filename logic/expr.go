package logic

// Op is a solver-level operator. Values follow SMT-LIB naming so the
// serializer can emit them directly.
type Op string

const (
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpNot      Op = "not"
	OpImplies  Op = "=>"
	OpEq       Op = "="
	OpDistinct Op = "distinct"
	OpLt       Op = "<"
	OpLe       Op = "<="
	OpGt       Op = ">"
	OpGe       Op = ">="
	OpAdd      Op = "+"
	OpSub      Op = "-"
	OpMul      Op = "*"
	OpIntDiv   Op = "div"
	OpRealDiv  Op = "/"
	OpNeg      Op = "-"
	OpSelect   Op = "select"
)

// Symbol is a declared solver-level name with a fixed sort and arity.
// Symbols are created only through Context declaration methods, which enforce
// name uniqueness.
type Symbol struct {
	Name string
	// Params are the argument sorts; empty for constants and variables.
	Params []Sort
	// Result is the value sort.
	Result Sort
}

// Arity returns the number of arguments the symbol takes.
func (s Symbol) Arity() int { return len(s.Params) }

// QuantKind distinguishes universal from existential quantification.
type QuantKind int

const (
	// Forall is universal quantification.
	Forall QuantKind = iota
	// Exists is existential quantification.
	Exists
)

// String returns the SMT-LIB keyword for the quantifier kind.
func (k QuantKind) String() string {
	if k == Exists {
		return "exists"
	}
	return "forall"
}

// Expr is a solver-level formula or term. Expressions are immutable once
// built; sub-expressions may be shared (a DAG) but must not form cycles.
type Expr interface {
	isTerm()
}

// Literal is a constant. Value holds bool, int64, a *big-style decimal
// rendered as string, or string depending on the sort.
type Literal struct {
	Sort  Sort
	Value any
}

// Var references a declared constant or bound variable.
type Var struct {
	Sym Symbol
}

// Apply applies a declared function symbol to arguments.
type Apply struct {
	Sym  Symbol
	Args []Expr
}

// Unary applies a unary operator.
type Unary struct {
	Op Op
	X  Expr
}

// Binary applies a binary operator.
type Binary struct {
	Op   Op
	L, R Expr
}

// NAry applies an associative operator (and/or/+) to two or more operands.
// The serializer flattens it into one application for readable queries.
type NAry struct {
	Op   Op
	Args []Expr
}

// IfThenElse selects between two terms of the same sort.
type IfThenElse struct {
	Cond, Then, Else Expr
}

// Binding binds a variable symbol within a quantifier body.
type Binding struct {
	Sym Symbol
}

// Quantified is a native solver quantifier. Patterns, when present, are
// instantiation hints attached to the body.
type Quantified struct {
	Kind     QuantKind
	Bindings []Binding
	Patterns []Expr
	Body     Expr
}

// LetBinding names a shared sub-term.
type LetBinding struct {
	Name  string
	Value Expr
}

// Let introduces shared sub-terms for Body.
type Let struct {
	Bindings []LetBinding
	Body     Expr
}

func (Literal) isTerm()    {}
func (Var) isTerm()        {}
func (Apply) isTerm()      {}
func (Unary) isTerm()      {}
func (Binary) isTerm()     {}
func (NAry) isTerm()       {}
func (IfThenElse) isTerm() {}
func (Quantified) isTerm() {}
func (Let) isTerm()        {}

// True and False are the boolean constants.
func True() Expr  { return Literal{Sort: Bool(), Value: true} }
func False() Expr { return Literal{Sort: Bool(), Value: false} }

// IntLit returns an integer literal.
func IntLit(v int64) Expr { return Literal{Sort: Int(), Value: v} }

// Not negates a formula, collapsing double negation.
func Not(e Expr) Expr {
	if u, ok := e.(Unary); ok && u.Op == OpNot {
		return u.X
	}
	return Unary{Op: OpNot, X: e}
}

// And conjoins formulas, returning True for zero operands and the operand
// itself for one.
func And(es ...Expr) Expr {
	switch len(es) {
	case 0:
		return True()
	case 1:
		return es[0]
	default:
		return NAry{Op: OpAnd, Args: es}
	}
}

// Or disjoins formulas, returning False for zero operands and the operand
// itself for one.
func Or(es ...Expr) Expr {
	switch len(es) {
	case 0:
		return False()
	case 1:
		return es[0]
	default:
		return NAry{Op: OpOr, Args: es}
	}
}

// CountNodes returns the number of nodes in the expression DAG, counting
// shared nodes each time they are reached.
func CountNodes(e Expr) int {
	if e == nil {
		return 0
	}
	n := 1
	switch x := e.(type) {
	case Apply:
		for _, a := range x.Args {
			n += CountNodes(a)
		}
	case Unary:
		n += CountNodes(x.X)
	case Binary:
		n += CountNodes(x.L) + CountNodes(x.R)
	case NAry:
		for _, a := range x.Args {
			n += CountNodes(a)
		}
	case IfThenElse:
		n += CountNodes(x.Cond) + CountNodes(x.Then) + CountNodes(x.Else)
	case Quantified:
		n += CountNodes(x.Body)
		for _, p := range x.Patterns {
			n += CountNodes(p)
		}
	case Let:
		for _, b := range x.Bindings {
			n += CountNodes(b.Value)
		}
		n += CountNodes(x.Body)
	}
	return n
}

// QuantifierCount returns the number of native quantifier nodes in e.
func QuantifierCount(e Expr) int {
	if e == nil {
		return 0
	}
	n := 0
	switch x := e.(type) {
	case Quantified:
		n = 1 + QuantifierCount(x.Body)
	case Apply:
		for _, a := range x.Args {
			n += QuantifierCount(a)
		}
	case Unary:
		n = QuantifierCount(x.X)
	case Binary:
		n = QuantifierCount(x.L) + QuantifierCount(x.R)
	case NAry:
		for _, a := range x.Args {
			n += QuantifierCount(a)
		}
	case IfThenElse:
		n = QuantifierCount(x.Cond) + QuantifierCount(x.Then) + QuantifierCount(x.Else)
	case Let:
		for _, b := range x.Bindings {
			n += QuantifierCount(b.Value)
		}
		n += QuantifierCount(x.Body)
	}
	return n
}
