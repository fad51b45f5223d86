package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// parseModel extracts a variable assignment from a get-model response:
// define-fun entries with zero parameters become bindings. Function-valued
// entries are ignored; diagnostics only consume constant assignments.
// An empty model is valid (a goal can be refuted with no free variables).
func parseModel(s string) (RawModel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RawModel{}, nil
	}
	nodes, err := parseSexprs(s)
	if err != nil {
		return nil, err
	}
	model := RawModel{}
	for _, n := range nodes {
		collectDefineFuns(n, model)
	}
	return model, nil
}

// sexpr is one node of the solver's s-expression output: either an atom or
// a list, never both.
type sexpr struct {
	atom string
	list []sexpr
	leaf bool
}

func parseSexprs(s string) ([]sexpr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	var out []sexpr
	pos := 0
	for pos < len(toks) {
		node, next, err := parseSexpr(toks, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
		pos = next
	}
	return out, nil
}

func parseSexpr(toks []string, pos int) (sexpr, int, error) {
	if pos >= len(toks) {
		return sexpr{}, pos, fmt.Errorf("unexpected end of model output")
	}
	tok := toks[pos]
	switch tok {
	case "(":
		node := sexpr{}
		pos++
		for {
			if pos >= len(toks) {
				return sexpr{}, pos, fmt.Errorf("unbalanced parenthesis in model output")
			}
			if toks[pos] == ")" {
				return node, pos + 1, nil
			}
			child, next, err := parseSexpr(toks, pos)
			if err != nil {
				return sexpr{}, pos, err
			}
			node.list = append(node.list, child)
			pos = next
		}
	case ")":
		return sexpr{}, pos, fmt.Errorf("unexpected close parenthesis in model output")
	default:
		return sexpr{atom: tok, leaf: true}, pos + 1, nil
	}
}

func tokenize(s string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"':
			j := i + 1
			var b strings.Builder
			for {
				if j >= len(s) {
					return nil, fmt.Errorf("unterminated string in model output")
				}
				if s[j] == '"' {
					if j+1 < len(s) && s[j+1] == '"' {
						b.WriteByte('"')
						j += 2
						continue
					}
					break
				}
				b.WriteByte(s[j])
				j++
			}
			toks = append(toks, `"`+b.String())
			i = j + 1
		case c == ';':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		default:
			j := i
			for j < len(s) && !strings.ContainsAny(string(s[j]), "() \t\n\r\"") {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks, nil
}

// collectDefineFuns walks a parsed node and records every zero-parameter
// define-fun as a model binding.
func collectDefineFuns(n sexpr, model RawModel) {
	if n.leaf {
		return
	}
	if len(n.list) >= 5 && n.list[0].leaf && n.list[0].atom == "define-fun" {
		name := n.list[1].atom
		params := n.list[2]
		if name != "" && !params.leaf && len(params.list) == 0 {
			model[name] = sexprValue(n.list[4])
		}
		return
	}
	for _, child := range n.list {
		collectDefineFuns(child, model)
	}
}

// sexprValue converts a model value node into a Go value: bool, int64, or a
// string for string/real/constructor values. Negation wrappers like (- 5)
// fold into negative numbers.
func sexprValue(n sexpr) any {
	if n.leaf {
		switch n.atom {
		case "true":
			return true
		case "false":
			return false
		}
		if strings.HasPrefix(n.atom, `"`) {
			return strings.TrimPrefix(n.atom, `"`)
		}
		if v, err := strconv.ParseInt(n.atom, 10, 64); err == nil {
			return v
		}
		return n.atom
	}
	if len(n.list) == 2 && n.list[0].leaf && n.list[0].atom == "-" {
		switch inner := sexprValue(n.list[1]).(type) {
		case int64:
			return -inner
		case string:
			return "-" + inner
		}
	}
	// Unrecognized compound values (arrays, lambdas) are kept as text.
	var b strings.Builder
	renderSexpr(&b, n)
	return b.String()
}

func renderSexpr(b *strings.Builder, n sexpr) {
	if n.leaf {
		b.WriteString(n.atom)
		return
	}
	b.WriteString("(")
	for i, c := range n.list {
		if i > 0 {
			b.WriteString(" ")
		}
		renderSexpr(b, c)
	}
	b.WriteString(")")
}
