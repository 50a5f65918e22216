package apitree

import (
	"iter"
	"strings"
)

// ParameterKind identifies how an argument can be supplied to a parameter.
type ParameterKind string

const (
	PositionalOnly      ParameterKind = "positional-only"
	PositionalOrKeyword ParameterKind = "positional-or-keyword"
	KeywordOnly         ParameterKind = "keyword-only"
	VariadicPositional  ParameterKind = "variadic-positional"
	VariadicKeyword     ParameterKind = "variadic-keyword"
)

// Positional reports whether arguments for this kind can be passed by position.
// Variadic parameters are not part of the positional category.
func (k ParameterKind) Positional() bool {
	return k == PositionalOnly || k == PositionalOrKeyword
}

// Valid reports whether k is one of the known kinds.
func (k ParameterKind) Valid() bool {
	switch k {
	case PositionalOnly, PositionalOrKeyword, KeywordOnly, VariadicPositional, VariadicKeyword:
		return true
	}
	return false
}

// Parameter is a single function parameter.
type Parameter struct {
	Name       string
	Kind       ParameterKind
	Default    Expr // nil when the parameter has no default
	Annotation Expr // unused by the compatibility rules
}

// Required reports whether a caller must pass this parameter by position.
func (p Parameter) Required() bool {
	return p.Kind.Positional() && p.Default == nil
}

// String renders the parameter as "name: annotation = default", with the
// variadic prefixes "*" and "**".
func (p Parameter) String() string {
	var sb strings.Builder
	switch p.Kind {
	case VariadicPositional:
		sb.WriteString("*")
	case VariadicKeyword:
		sb.WriteString("**")
	}
	sb.WriteString(p.Name)
	if p.Annotation != nil {
		sb.WriteString(": ")
		sb.WriteString(p.Annotation.String())
	}
	if p.Default != nil {
		sb.WriteString(" = ")
		sb.WriteString(p.Default.String())
	}
	return sb.String()
}

// Parameters is an ordered parameter list with lookup by name.
// The zero value is an empty list.
type Parameters struct {
	list  []Parameter
	index map[string]int
}

// NewParameters builds a parameter list. If a name repeats, lookups by that
// name return the first occurrence.
func NewParameters(params ...Parameter) Parameters {
	ps := Parameters{
		list:  make([]Parameter, len(params)),
		index: make(map[string]int, len(params)),
	}
	copy(ps.list, params)
	for i, p := range ps.list {
		if _, dup := ps.index[p.Name]; !dup {
			ps.index[p.Name] = i
		}
	}
	return ps
}

// Len returns the number of parameters.
func (ps Parameters) Len() int { return len(ps.list) }

// At returns the parameter at position i.
func (ps Parameters) At(i int) Parameter { return ps.list[i] }

// Get returns the parameter with the given name.
func (ps Parameters) Get(name string) (Parameter, bool) {
	i, ok := ps.index[name]
	if !ok {
		return Parameter{}, false
	}
	return ps.list[i], true
}

// Has reports whether a parameter with the given name exists.
func (ps Parameters) Has(name string) bool {
	_, ok := ps.index[name]
	return ok
}

// Index returns the position of the named parameter, or -1.
func (ps Parameters) Index(name string) int {
	i, ok := ps.index[name]
	if !ok {
		return -1
	}
	return i
}

// All iterates over parameters in declaration order.
func (ps Parameters) All() iter.Seq2[int, Parameter] {
	return func(yield func(int, Parameter) bool) {
		for i, p := range ps.list {
			if !yield(i, p) {
				return
			}
		}
	}
}

// String renders the list as "(a, b = 1, *args)".
func (ps Parameters) String() string {
	parts := make([]string, len(ps.list))
	for i, p := range ps.list {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
