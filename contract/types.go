// Package contract defines the typed specification AST consumed by the
// verification pipeline: value types, expressions, and verification goals.
// It is the boundary shape produced by the upstream type-checker; nothing in
// this package parses specification syntax.
package contract

import "fmt"

// TypeKind identifies a specification value type.
type TypeKind int

const (
	// KindBool is the boolean type.
	KindBool TypeKind = iota
	// KindInt is the unbounded integer type.
	KindInt
	// KindDecimal is a fixed-point decimal type with a scale.
	KindDecimal
	// KindString is the text type.
	KindString
	// KindDate is a calendar date, represented as days since epoch.
	KindDate
	// KindDuration is an elapsed-time type, represented in seconds.
	KindDuration
	// KindEnum is a closed enumeration.
	KindEnum
	// KindEntity is a reference to a named entity (record) instance.
	KindEntity
	// KindCollection is a collection of elements of one type.
	KindCollection
	// KindBlob is an opaque binary payload. It has no logical encoding.
	KindBlob
)

// String returns the lowercase name of the type kind.
func (k TypeKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindDuration:
		return "duration"
	case KindEnum:
		return "enum"
	case KindEntity:
		return "entity"
	case KindCollection:
		return "collection"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
}

// Type describes a specification value type. Only the fields relevant to the
// Kind are populated.
type Type struct {
	Kind TypeKind

	// Name is the declared name for enum and entity types.
	Name string

	// Variants lists the enum literals, in declaration order.
	Variants []string

	// Elem is the element type for collections.
	Elem *Type

	// Scale is the number of fractional digits for decimal types.
	Scale int

	// MinValue and MaxValue bound integer refinement types when non-nil.
	// They are emitted as range assumptions, never used to truncate.
	MinValue *int64
	MaxValue *int64
}

// Bool returns the boolean type.
func Bool() Type { return Type{Kind: KindBool} }

// Int returns the unbounded integer type.
func Int() Type { return Type{Kind: KindInt} }

// BoundedInt returns an integer type refined to [min, max].
func BoundedInt(min, max int64) Type {
	return Type{Kind: KindInt, MinValue: &min, MaxValue: &max}
}

// Decimal returns a fixed-point decimal type with the given scale.
func Decimal(scale int) Type { return Type{Kind: KindDecimal, Scale: scale} }

// String_ returns the string type. The underscore avoids colliding with the
// fmt.Stringer convention on Type itself.
func String_() Type { return Type{Kind: KindString} }

// Date returns the calendar-date type.
func Date() Type { return Type{Kind: KindDate} }

// Duration returns the duration type.
func Duration() Type { return Type{Kind: KindDuration} }

// Enum returns an enumeration type with the given declared variants.
func Enum(name string, variants ...string) Type {
	return Type{Kind: KindEnum, Name: name, Variants: variants}
}

// Entity returns a reference type for the named entity.
func Entity(name string) Type { return Type{Kind: KindEntity, Name: name} }

// Collection returns a collection type over elem.
func Collection(elem Type) Type {
	return Type{Kind: KindCollection, Elem: &elem}
}

// Blob returns the opaque binary type.
func Blob() Type { return Type{Kind: KindBlob} }

// IsNumeric reports whether values of the type support arithmetic.
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindInt, KindDecimal, KindDate, KindDuration:
		return true
	default:
		return false
	}
}

// String renders the type for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case KindEnum, KindEntity:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Name)
	case KindCollection:
		return fmt.Sprintf("collection(%s)", t.Elem)
	case KindDecimal:
		return fmt.Sprintf("decimal(%d)", t.Scale)
	default:
		return t.Kind.String()
	}
}
