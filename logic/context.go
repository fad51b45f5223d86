package logic

import (
	"fmt"
	"sort"
)

// NumericMode selects how decimal specification values are encoded.
type NumericMode int

const (
	// DecimalAsReal encodes decimals as Real terms with a scale assumption
	// emitted alongside. This is the default.
	DecimalAsReal NumericMode = iota
	// DecimalAsScaledInt encodes decimals as Int terms pre-multiplied by
	// 10^scale. Exact, but loses mixed-scale arithmetic.
	DecimalAsScaledInt
)

// Options configures encoding behavior for one context.
type Options struct {
	// Strict makes unsupported constructs hard encoding failures instead of
	// best-effort Unknown degradations (fail-closed vs best-effort).
	Strict bool

	// Numeric selects the decimal encoding mode.
	Numeric NumericMode
}

// Context owns all declared sorts and symbols for one goal's encoding, plus
// the entity-universe table bounding quantifiers over collections.
//
// A context is not safe for concurrent use. Concurrent goals each get their
// own context, cloned from a shared read-only base, so symbol declaration
// never races across workers.
type Context struct {
	opts Options

	sorts   map[string]Sort
	symbols map[string]Symbol

	// universes maps a collection name to the finite set of instance
	// identifiers a bounded quantifier over it ranges over.
	universes map[string][]string

	// axioms collects auxiliary assertions emitted during encoding: range
	// assumptions for refinement types, scale assumptions for decimals, and
	// skolem definitions for aggregates.
	axioms []Expr

	// boundedUniverses records which universes actually bounded a quantifier
	// during encoding, with their sizes. A non-empty map means UNSAT proves
	// the goal only within those bounds.
	boundedUniverses map[string]int

	// usedNativeQuantifier is set when an open-domain quantifier had to be
	// encoded natively; the resulting proof relies on solver instantiation
	// heuristics and is reported non-exhaustive.
	usedNativeQuantifier bool

	fresh int
}

// NewContext creates an empty context with the given options.
func NewContext(opts Options) *Context {
	return &Context{
		opts:             opts,
		sorts:            make(map[string]Sort),
		symbols:          make(map[string]Symbol),
		universes:        make(map[string][]string),
		boundedUniverses: make(map[string]int),
	}
}

// Options returns the context's encoding options.
func (c *Context) Options() Options { return c.opts }

// Clone returns an independent copy sharing nothing mutable with c. The
// orchestrator builds one base context per run and clones it per goal.
func (c *Context) Clone() *Context {
	n := NewContext(c.opts)
	for k, v := range c.sorts {
		n.sorts[k] = v
	}
	for k, v := range c.symbols {
		n.symbols[k] = v
	}
	for k, v := range c.universes {
		ids := make([]string, len(v))
		copy(ids, v)
		n.universes[k] = ids
	}
	n.axioms = append(n.axioms, c.axioms...)
	for k, v := range c.boundedUniverses {
		n.boundedUniverses[k] = v
	}
	n.usedNativeQuantifier = c.usedNativeQuantifier
	n.fresh = c.fresh
	return n
}

// DeclareSort registers a named sort. Declaration is append-only: redeclaring
// an identical sort is a no-op, redeclaring with a different definition is an
// error.
func (c *Context) DeclareSort(s Sort) error {
	if s.Name == "" {
		return fmt.Errorf("sort declaration requires a name")
	}
	if existing, ok := c.sorts[s.Name]; ok {
		if !existing.Equal(s) {
			return fmt.Errorf("sort %q already declared with a different definition", s.Name)
		}
		return nil
	}
	c.sorts[s.Name] = s
	return nil
}

// Sorts returns declared sorts in lexicographic name order.
func (c *Context) Sorts() []Sort {
	names := make([]string, 0, len(c.sorts))
	for n := range c.sorts {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Sort, len(names))
	for i, n := range names {
		out[i] = c.sorts[n]
	}
	return out
}

// DeclareConst declares a zero-arity symbol. Names are unique within the
// context; redeclaring with an identical signature returns the existing
// symbol.
func (c *Context) DeclareConst(name string, s Sort) (Symbol, error) {
	return c.DeclareFun(name, nil, s)
}

// DeclareFun declares a function symbol with the given parameter and result
// sorts.
func (c *Context) DeclareFun(name string, params []Sort, result Sort) (Symbol, error) {
	if name == "" {
		return Symbol{}, fmt.Errorf("symbol declaration requires a name")
	}
	sym := Symbol{Name: name, Params: params, Result: result}
	if existing, ok := c.symbols[name]; ok {
		if !sameSignature(existing, sym) {
			return Symbol{}, fmt.Errorf("symbol %q already declared with a different signature", name)
		}
		return existing, nil
	}
	c.symbols[name] = sym
	return sym, nil
}

// LookupSymbol returns the symbol declared under name.
func (c *Context) LookupSymbol(name string) (Symbol, bool) {
	s, ok := c.symbols[name]
	return s, ok
}

// FreshSymbol declares a symbol with a generated, collision-free name built
// from the given prefix. Used for skolem functions and aggregate helpers.
func (c *Context) FreshSymbol(prefix string, params []Sort, result Sort) Symbol {
	for {
		c.fresh++
		name := fmt.Sprintf("%s!%d", prefix, c.fresh)
		if _, taken := c.symbols[name]; taken {
			continue
		}
		sym, _ := c.DeclareFun(name, params, result)
		return sym
	}
}

// Symbols returns declared symbols in lexicographic name order.
func (c *Context) Symbols() []Symbol {
	names := make([]string, 0, len(c.symbols))
	for n := range c.symbols {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Symbol, len(names))
	for i, n := range names {
		out[i] = c.symbols[n]
	}
	return out
}

// SetUniverse registers the finite instance set for a named collection.
func (c *Context) SetUniverse(collection string, instanceIDs []string) {
	ids := make([]string, len(instanceIDs))
	copy(ids, instanceIDs)
	c.universes[collection] = ids
}

// Universe returns the instance set for a collection, if one is known.
func (c *Context) Universe(collection string) ([]string, bool) {
	ids, ok := c.universes[collection]
	return ids, ok
}

// UniverseSizes returns the size of every registered universe.
func (c *Context) UniverseSizes() map[string]int {
	out := make(map[string]int, len(c.universes))
	for k, v := range c.universes {
		out[k] = len(v)
	}
	return out
}

// AddAxiom appends an auxiliary assertion emitted during encoding.
func (c *Context) AddAxiom(e Expr) { c.axioms = append(c.axioms, e) }

// Axioms returns auxiliary assertions in emission order.
func (c *Context) Axioms() []Expr { return c.axioms }

// MarkBounded records that a quantifier was expanded over the named universe.
func (c *Context) MarkBounded(collection string, size int) {
	c.boundedUniverses[collection] = size
}

// BoundedUniverses returns the universes that bounded at least one
// quantifier, with their sizes. Empty means no quantifier was bounded.
func (c *Context) BoundedUniverses() map[string]int {
	out := make(map[string]int, len(c.boundedUniverses))
	for k, v := range c.boundedUniverses {
		out[k] = v
	}
	return out
}

// MarkNativeQuantifier records that an open-domain quantifier was encoded
// natively.
func (c *Context) MarkNativeQuantifier() { c.usedNativeQuantifier = true }

// UsedNativeQuantifier reports whether any native quantifier was emitted.
func (c *Context) UsedNativeQuantifier() bool { return c.usedNativeQuantifier }

func sameSignature(a, b Symbol) bool {
	if a.Name != b.Name || len(a.Params) != len(b.Params) || !a.Result.Equal(b.Result) {
		return false
	}
	for i := range a.Params {
		if !a.Params[i].Equal(b.Params[i]) {
			return false
		}
	}
	return true
}
