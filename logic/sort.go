// Package logic defines the solver-level data model: sorts, symbols,
// expressions, and the per-goal encoding context that owns all declarations.
package logic

import (
	"fmt"
	"strings"
)

// SortKind identifies a solver value domain.
type SortKind int

const (
	// SortBool is the boolean sort.
	SortBool SortKind = iota
	// SortInt is the mathematical integer sort.
	SortInt
	// SortReal is the real-number sort.
	SortReal
	// SortString is the string sort.
	SortString
	// SortUninterpreted is a named uninterpreted sort (entity instances).
	SortUninterpreted
	// SortEnum is a named closed datatype with one constructor per variant.
	SortEnum
	// SortArray maps an index sort to an element sort.
	SortArray
	// SortSet is a set of elements, encoded as an array to Bool.
	SortSet
)

// Sort is a symbolic value domain. Sorts are values; two sorts are the same
// domain iff they are structurally equal.
type Sort struct {
	Kind SortKind

	// Name names uninterpreted and enum sorts.
	Name string

	// Variants lists enum constructors in declaration order.
	Variants []string

	// Index and Elem describe array sorts; Elem alone describes set sorts.
	Index *Sort
	Elem  *Sort
}

// Convenience constructors for the builtin sorts.
func Bool() Sort   { return Sort{Kind: SortBool} }
func Int() Sort    { return Sort{Kind: SortInt} }
func Real() Sort   { return Sort{Kind: SortReal} }
func String() Sort { return Sort{Kind: SortString} }

// Uninterpreted returns a named uninterpreted sort.
func Uninterpreted(name string) Sort {
	return Sort{Kind: SortUninterpreted, Name: name}
}

// Enum returns a named enum sort with the given constructors.
func Enum(name string, variants ...string) Sort {
	return Sort{Kind: SortEnum, Name: name, Variants: variants}
}

// Array returns an array sort from index to elem.
func Array(index, elem Sort) Sort {
	return Sort{Kind: SortArray, Index: &index, Elem: &elem}
}

// Set returns a set sort over elem.
func Set(elem Sort) Sort {
	return Sort{Kind: SortSet, Elem: &elem}
}

// Equal reports structural equality of two sorts.
func (s Sort) Equal(o Sort) bool {
	if s.Kind != o.Kind || s.Name != o.Name {
		return false
	}
	if len(s.Variants) != len(o.Variants) {
		return false
	}
	for i := range s.Variants {
		if s.Variants[i] != o.Variants[i] {
			return false
		}
	}
	if (s.Index == nil) != (o.Index == nil) || (s.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if s.Index != nil && !s.Index.Equal(*o.Index) {
		return false
	}
	if s.Elem != nil && !s.Elem.Equal(*o.Elem) {
		return false
	}
	return true
}

// String renders the sort in SMT-LIB syntax.
func (s Sort) String() string {
	switch s.Kind {
	case SortBool:
		return "Bool"
	case SortInt:
		return "Int"
	case SortReal:
		return "Real"
	case SortString:
		return "String"
	case SortUninterpreted, SortEnum:
		return s.Name
	case SortArray:
		return fmt.Sprintf("(Array %s %s)", s.Index, s.Elem)
	case SortSet:
		return fmt.Sprintf("(Array %s Bool)", s.Elem)
	default:
		return fmt.Sprintf("Sort(%d)", int(s.Kind))
	}
}

// Key returns a stable identity string for use as a map key.
func (s Sort) Key() string {
	var b strings.Builder
	s.writeKey(&b)
	return b.String()
}

func (s Sort) writeKey(b *strings.Builder) {
	fmt.Fprintf(b, "%d:%s", int(s.Kind), s.Name)
	if len(s.Variants) > 0 {
		b.WriteString("[" + strings.Join(s.Variants, ",") + "]")
	}
	if s.Index != nil {
		b.WriteString("<")
		s.Index.writeKey(b)
	}
	if s.Elem != nil {
		b.WriteString(";")
		s.Elem.writeKey(b)
	}
}
