package contract

import (
	"encoding/json"
	"fmt"
)

// The JSON shapes in this file are the wire format produced by the upstream
// type-checker. Every expression node carries a "node" tag; types carry a
// "kind" tag. Decoding is strict: unknown tags are errors, never silently
// dropped clauses.

type typeJSON struct {
	Kind     string    `json:"kind"`
	Name     string    `json:"name,omitempty"`
	Variants []string  `json:"variants,omitempty"`
	Elem     *typeJSON `json:"elem,omitempty"`
	Scale    int       `json:"scale,omitempty"`
	Min      *int64    `json:"min,omitempty"`
	Max      *int64    `json:"max,omitempty"`
}

func decodeType(tj *typeJSON) (Type, error) {
	if tj == nil {
		return Type{}, fmt.Errorf("missing type")
	}
	var t Type
	switch tj.Kind {
	case "bool":
		t = Bool()
	case "int":
		t = Int()
	case "decimal":
		t = Decimal(tj.Scale)
	case "string":
		t = String_()
	case "date":
		t = Date()
	case "duration":
		t = Duration()
	case "enum":
		t = Enum(tj.Name, tj.Variants...)
	case "entity":
		t = Entity(tj.Name)
	case "collection":
		elem, err := decodeType(tj.Elem)
		if err != nil {
			return Type{}, fmt.Errorf("collection element: %w", err)
		}
		t = Collection(elem)
	case "blob":
		t = Blob()
	default:
		return Type{}, fmt.Errorf("unknown type kind %q", tj.Kind)
	}
	t.MinValue = tj.Min
	t.MaxValue = tj.Max
	return t, nil
}

type exprJSON struct {
	Node string `json:"node"`

	// literal
	Value json.RawMessage `json:"value,omitempty"`

	// literal, ref, unknown, field, call
	Type *typeJSON `json:"type,omitempty"`

	// ref, field, call, let
	Name string `json:"name,omitempty"`

	// unknown
	Provenance string `json:"provenance,omitempty"`

	// unary, binary
	Op string `json:"op,omitempty"`

	// field
	Entity *exprJSON `json:"entity,omitempty"`

	// call
	Args []*exprJSON `json:"args,omitempty"`

	// unary, binary
	Operand *exprJSON `json:"operand,omitempty"`
	Left    *exprJSON `json:"left,omitempty"`
	Right   *exprJSON `json:"right,omitempty"`

	// cond
	If   *exprJSON `json:"if,omitempty"`
	Then *exprJSON `json:"then,omitempty"`
	Else *exprJSON `json:"else,omitempty"`

	// quantifier
	Quant      string    `json:"quant,omitempty"`
	Var        string    `json:"var,omitempty"`
	Collection string    `json:"collection,omitempty"`
	ElemType   *typeJSON `json:"elem_type,omitempty"`

	// quantifier, let
	Body *exprJSON `json:"body,omitempty"`

	// let
	Bind *exprJSON `json:"bind,omitempty"`
}

func decodeExpr(ej *exprJSON) (Expr, error) {
	if ej == nil {
		return nil, fmt.Errorf("missing expression")
	}
	switch ej.Node {
	case "literal":
		t, err := decodeType(ej.Type)
		if err != nil {
			return nil, err
		}
		v, err := decodeLiteralValue(t, ej.Value)
		if err != nil {
			return nil, err
		}
		return Literal{Type: t, Value: v}, nil

	case "ref":
		t, err := decodeType(ej.Type)
		if err != nil {
			return nil, fmt.Errorf("ref %s: %w", ej.Name, err)
		}
		if ej.Name == "" {
			return nil, fmt.Errorf("ref requires a name")
		}
		return Ref{Name: ej.Name, Type: t}, nil

	case "unknown":
		t, err := decodeType(ej.Type)
		if err != nil {
			return nil, err
		}
		return Unknown{Type: t, Provenance: ej.Provenance}, nil

	case "field":
		entity, err := decodeExpr(ej.Entity)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", ej.Name, err)
		}
		t, err := decodeType(ej.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", ej.Name, err)
		}
		return Field{Entity: entity, Name: ej.Name, Type: t}, nil

	case "call":
		t, err := decodeType(ej.Type)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", ej.Name, err)
		}
		args := make([]Expr, len(ej.Args))
		for i, a := range ej.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, fmt.Errorf("call %s arg %d: %w", ej.Name, i, err)
			}
			args[i] = arg
		}
		return Call{Name: ej.Name, Args: args, Type: t}, nil

	case "unary":
		operand, err := decodeExpr(ej.Operand)
		if err != nil {
			return nil, fmt.Errorf("unary %s: %w", ej.Op, err)
		}
		return Unary{Op: Op(ej.Op), Operand: operand}, nil

	case "binary":
		left, err := decodeExpr(ej.Left)
		if err != nil {
			return nil, fmt.Errorf("binary %s: %w", ej.Op, err)
		}
		right, err := decodeExpr(ej.Right)
		if err != nil {
			return nil, fmt.Errorf("binary %s: %w", ej.Op, err)
		}
		return Binary{Op: Op(ej.Op), Left: left, Right: right}, nil

	case "cond":
		cif, err := decodeExpr(ej.If)
		if err != nil {
			return nil, err
		}
		cthen, err := decodeExpr(ej.Then)
		if err != nil {
			return nil, err
		}
		celse, err := decodeExpr(ej.Else)
		if err != nil {
			return nil, err
		}
		return Cond{If: cif, Then: cthen, Else: celse}, nil

	case "quantifier":
		var kind QuantKind
		switch ej.Quant {
		case "forall", "":
			kind = Forall
		case "exists":
			kind = Exists
		default:
			return nil, fmt.Errorf("unknown quantifier kind %q", ej.Quant)
		}
		elemType, err := decodeType(ej.ElemType)
		if err != nil {
			return nil, fmt.Errorf("quantifier over %s: %w", ej.Collection, err)
		}
		body, err := decodeExpr(ej.Body)
		if err != nil {
			return nil, fmt.Errorf("quantifier over %s: %w", ej.Collection, err)
		}
		return Quantifier{Kind: kind, Var: ej.Var, Collection: ej.Collection, ElemType: elemType, Body: body}, nil

	case "let":
		value, err := decodeExpr(ej.Bind)
		if err != nil {
			return nil, fmt.Errorf("let %s: %w", ej.Name, err)
		}
		body, err := decodeExpr(ej.Body)
		if err != nil {
			return nil, fmt.Errorf("let %s: %w", ej.Name, err)
		}
		return Let{Name: ej.Name, Value: value, Body: body}, nil

	default:
		return nil, fmt.Errorf("unknown expression node %q", ej.Node)
	}
}

func decodeLiteralValue(t Type, raw json.RawMessage) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("literal of type %s requires a value", t)
	}
	switch t.Kind {
	case KindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("bool literal: %w", err)
		}
		return v, nil
	case KindInt, KindDate, KindDuration, KindDecimal:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s literal: %w", t.Kind, err)
		}
		return v, nil
	case KindString, KindEnum:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s literal: %w", t.Kind, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("type %s has no literal form", t)
	}
}

type goalJSON struct {
	ID          string          `json:"id"`
	Category    string          `json:"category,omitempty"`
	Source      SourceLocation  `json:"source,omitempty"`
	Assumptions []*exprJSON     `json:"assumptions,omitempty"`
	Claim       *exprJSON       `json:"claim"`
}

// UnmarshalJSON decodes a goal from the upstream wire format.
func (g *Goal) UnmarshalJSON(data []byte) error {
	var gj goalJSON
	if err := json.Unmarshal(data, &gj); err != nil {
		return err
	}

	goal := Goal{
		ID:       gj.ID,
		Category: Category(gj.Category),
		Source:   gj.Source,
	}
	for i, a := range gj.Assumptions {
		expr, err := decodeExpr(a)
		if err != nil {
			return fmt.Errorf("goal %s assumption %d: %w", gj.ID, i, err)
		}
		goal.Assumptions = append(goal.Assumptions, expr)
	}
	claim, err := decodeExpr(gj.Claim)
	if err != nil {
		return fmt.Errorf("goal %s claim: %w", gj.ID, err)
	}
	goal.Claim = claim

	*g = goal
	return g.Validate()
}
