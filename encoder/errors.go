// Package encoder lowers typed specification expressions into solver-level
// formulas: sort mapping, three-valued handling of statically-unknown values,
// bounded quantifier expansion, and aggregate skolemization.
package encoder

import (
	"fmt"

	"github.com/c360studio/specverify/contract"
)

// ErrorKind classifies encoding failures.
type ErrorKind string

const (
	// UnboundReference means an expression referenced an undeclared name.
	UnboundReference ErrorKind = "unbound_reference"
	// UnsupportedOperator means an operator or builtin has no encoding.
	UnsupportedOperator ErrorKind = "unsupported_operator"
	// SortMismatch means operand sorts disagree with the operator.
	SortMismatch ErrorKind = "sort_mismatch"
	// CyclicDefinition means a definition referred to itself.
	CyclicDefinition ErrorKind = "cyclic_definition"
)

// EncodingError reports why an expression could not be lowered. It aborts
// encoding of the affected goal only; sibling goals proceed.
type EncodingError struct {
	Kind   ErrorKind
	Detail string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error (%s): %s", e.Kind, e.Detail)
}

func encodingErrf(kind ErrorKind, format string, args ...any) error {
	return &EncodingError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// UnsupportedTypeError reports a specification type with no safe logical
// encoding (e.g. opaque blobs). Callers must treat the affected clause as
// Unknown, never drop it.
type UnsupportedTypeError struct {
	Type contract.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("type %s has no logical encoding", e.Type)
}

// IndeterminateError signals that a statically-unknown value survived Kleene
// short-circuiting, so the clause's truth cannot be established either way.
// The orchestrator maps it to an Unknown verdict, never to true or false.
type IndeterminateError struct {
	Provenance string
}

func (e *IndeterminateError) Error() string {
	return fmt.Sprintf("clause depends on unknown value (%s)", e.Provenance)
}
