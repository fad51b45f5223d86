package encoder

import (
	"fmt"

	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/logic"
)

// MapType maps a specification value type to its solver sort, declaring named
// sorts (enums, entity sorts) in the context as a side effect. Declarations
// are append-only and idempotent, so mapping the same type twice is safe.
//
// Structural record types are not mapped directly: each entity becomes an
// uninterpreted sort and its fields become selector functions declared on
// first access (see selectorSymbol).
func MapType(ctx *logic.Context, t contract.Type) (logic.Sort, error) {
	switch t.Kind {
	case contract.KindBool:
		return logic.Bool(), nil
	case contract.KindInt, contract.KindDate, contract.KindDuration:
		// Dates are days since epoch, durations are seconds; both inherit
		// integer ordering and arithmetic.
		return logic.Int(), nil
	case contract.KindDecimal:
		if ctx.Options().Numeric == logic.DecimalAsScaledInt {
			return logic.Int(), nil
		}
		return logic.Real(), nil
	case contract.KindString:
		return logic.String(), nil
	case contract.KindEnum:
		if t.Name == "" || len(t.Variants) == 0 {
			return logic.Sort{}, &UnsupportedTypeError{Type: t}
		}
		// Constructor names carry the enum name as a prefix so variants from
		// different enums never collide in the solver's namespace.
		ctors := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			ctors[i] = enumVariantName(t.Name, v)
		}
		s := logic.Enum(enumSortName(t.Name), ctors...)
		if err := ctx.DeclareSort(s); err != nil {
			return logic.Sort{}, err
		}
		return s, nil
	case contract.KindEntity:
		if t.Name == "" {
			return logic.Sort{}, &UnsupportedTypeError{Type: t}
		}
		s := logic.Uninterpreted(entitySortName(t.Name))
		if err := ctx.DeclareSort(s); err != nil {
			return logic.Sort{}, err
		}
		return s, nil
	case contract.KindCollection:
		elem, err := MapType(ctx, *t.Elem)
		if err != nil {
			return logic.Sort{}, err
		}
		return logic.Set(elem), nil
	case contract.KindBlob:
		return logic.Sort{}, &UnsupportedTypeError{Type: t}
	default:
		return logic.Sort{}, &UnsupportedTypeError{Type: t}
	}
}

// rangeAxioms returns the assumptions a refined numeric type carries:
// min/max bounds for bounded integers and the scale constraint for decimals
// in Real mode. The axioms refer to the given term.
func rangeAxioms(ctx *logic.Context, t contract.Type, term logic.Expr) []logic.Expr {
	var out []logic.Expr
	if t.Kind == contract.KindInt {
		if t.MinValue != nil {
			out = append(out, logic.Binary{Op: logic.OpGe, L: term, R: logic.IntLit(*t.MinValue)})
		}
		if t.MaxValue != nil {
			out = append(out, logic.Binary{Op: logic.OpLe, L: term, R: logic.IntLit(*t.MaxValue)})
		}
	}
	if t.Kind == contract.KindDecimal && ctx.Options().Numeric == logic.DecimalAsReal {
		// term * 10^scale must be an integer: term is a fixed-point value,
		// never silently truncated.
		pow := int64(1)
		for i := 0; i < t.Scale; i++ {
			pow *= 10
		}
		scaled := logic.Binary{Op: logic.OpMul, L: term, R: logic.Literal{Sort: logic.Real(), Value: fmt.Sprintf("%d.0", pow)}}
		out = append(out, logic.Unary{Op: "is_int", X: scaled})
	}
	return out
}

func enumSortName(name string) string   { return "Enum_" + sanitizeName(name) }
func entitySortName(name string) string { return "Entity_" + sanitizeName(name) }

// sanitizeName restricts a specification identifier to the solver's simple
// symbol alphabet.
func sanitizeName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "_"
	}
	return string(out)
}
