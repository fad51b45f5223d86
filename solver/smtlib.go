package solver

import (
	"fmt"
	"strings"

	"github.com/c360studio/specverify/logic"
)

// Query is one self-contained solver query: the declarations owned by the
// encoding context plus the assertions to check. No session state is reused
// between queries.
type Query struct {
	Ctx        *logic.Context
	Assertions []logic.Expr

	// ProduceModel requests a model on sat.
	ProduceModel bool
}

// NodeCount returns the total assertion node count, axioms included.
func (q *Query) NodeCount() int {
	n := 0
	for _, a := range q.Ctx.Axioms() {
		n += logic.CountNodes(a)
	}
	for _, a := range q.Assertions {
		n += logic.CountNodes(a)
	}
	return n
}

// QuantifierCount returns the number of native quantifiers in the query.
func (q *Query) QuantifierCount() int {
	n := 0
	for _, a := range q.Ctx.Axioms() {
		n += logic.QuantifierCount(a)
	}
	for _, a := range q.Assertions {
		n += logic.QuantifierCount(a)
	}
	return n
}

// Serialize renders the query as SMT-LIB 2 text. Serialization is
// deterministic: sort and symbol declarations are ordered lexicographically
// and assertion order follows the goal, so the same goal under the same
// limits produces byte-identical output across runs.
func (q *Query) Serialize() string {
	var b strings.Builder
	b.WriteString("(set-logic ALL)\n")
	if q.ProduceModel {
		b.WriteString("(set-option :produce-models true)\n")
	}

	for _, s := range q.Ctx.Sorts() {
		writeSortDecl(&b, s)
	}
	for _, sym := range q.Ctx.Symbols() {
		writeSymbolDecl(&b, sym)
	}
	for _, ax := range q.Ctx.Axioms() {
		b.WriteString("(assert ")
		writeExpr(&b, ax)
		b.WriteString(")\n")
	}
	for _, a := range q.Assertions {
		b.WriteString("(assert ")
		writeExpr(&b, a)
		b.WriteString(")\n")
	}

	b.WriteString("(check-sat)\n")
	if q.ProduceModel {
		b.WriteString("(get-model)\n")
	}
	return b.String()
}

func writeSortDecl(b *strings.Builder, s logic.Sort) {
	switch s.Kind {
	case logic.SortUninterpreted:
		fmt.Fprintf(b, "(declare-sort %s 0)\n", s.Name)
	case logic.SortEnum:
		fmt.Fprintf(b, "(declare-datatypes ((%s 0)) ((", s.Name)
		for i, v := range s.Variants {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(b, "(%s)", v)
		}
		b.WriteString(")))\n")
	}
}

func writeSymbolDecl(b *strings.Builder, sym logic.Symbol) {
	fmt.Fprintf(b, "(declare-fun %s (", sym.Name)
	for i, p := range sym.Params {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(p.String())
	}
	fmt.Fprintf(b, ") %s)\n", sym.Result)
}

func writeExpr(b *strings.Builder, e logic.Expr) {
	switch x := e.(type) {
	case logic.Literal:
		writeLiteral(b, x)
	case logic.Var:
		b.WriteString(x.Sym.Name)
	case logic.Apply:
		b.WriteString("(")
		b.WriteString(x.Sym.Name)
		for _, a := range x.Args {
			b.WriteString(" ")
			writeExpr(b, a)
		}
		b.WriteString(")")
	case logic.Unary:
		fmt.Fprintf(b, "(%s ", x.Op)
		writeExpr(b, x.X)
		b.WriteString(")")
	case logic.Binary:
		fmt.Fprintf(b, "(%s ", x.Op)
		writeExpr(b, x.L)
		b.WriteString(" ")
		writeExpr(b, x.R)
		b.WriteString(")")
	case logic.NAry:
		fmt.Fprintf(b, "(%s", x.Op)
		for _, a := range x.Args {
			b.WriteString(" ")
			writeExpr(b, a)
		}
		b.WriteString(")")
	case logic.IfThenElse:
		b.WriteString("(ite ")
		writeExpr(b, x.Cond)
		b.WriteString(" ")
		writeExpr(b, x.Then)
		b.WriteString(" ")
		writeExpr(b, x.Else)
		b.WriteString(")")
	case logic.Quantified:
		fmt.Fprintf(b, "(%s (", x.Kind)
		for i, bind := range x.Bindings {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(b, "(%s %s)", bind.Sym.Name, bind.Sym.Result)
		}
		b.WriteString(") ")
		if len(x.Patterns) > 0 {
			b.WriteString("(! ")
			writeExpr(b, x.Body)
			b.WriteString(" :pattern (")
			for i, p := range x.Patterns {
				if i > 0 {
					b.WriteString(" ")
				}
				writeExpr(b, p)
			}
			b.WriteString("))")
		} else {
			writeExpr(b, x.Body)
		}
		b.WriteString(")")
	case logic.Let:
		b.WriteString("(let (")
		for i, bind := range x.Bindings {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(b, "(%s ", bind.Name)
			writeExpr(b, bind.Value)
			b.WriteString(")")
		}
		b.WriteString(") ")
		writeExpr(b, x.Body)
		b.WriteString(")")
	}
}

func writeLiteral(b *strings.Builder, lit logic.Literal) {
	switch v := lit.Value.(type) {
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int64:
		if v < 0 {
			fmt.Fprintf(b, "(- %d)", -v)
		} else {
			fmt.Fprintf(b, "%d", v)
		}
	case string:
		if lit.Sort.Kind == logic.SortString {
			b.WriteString(quoteString(v))
			return
		}
		// Real literals and enum constructors are emitted verbatim.
		if strings.HasPrefix(v, "-") {
			fmt.Fprintf(b, "(- %s)", strings.TrimPrefix(v, "-"))
			return
		}
		b.WriteString(v)
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

// quoteString renders an SMT-LIB string literal; double quotes are escaped
// by doubling per the standard.
func quoteString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
