package apitree

import (
	"errors"
	"strings"
)

// ErrIncomparable is returned by Expr.Equal when two expressions have no
// well-defined equality.
var ErrIncomparable = errors.New("expressions are not comparable")

// Equality is the outcome of comparing two expressions.
type Equality int

const (
	Equal Equality = iota
	NotEqual
	Incomparable
)

// String returns a lowercase label for the outcome.
func (e Equality) String() string {
	switch e {
	case Equal:
		return "equal"
	case NotEqual:
		return "not-equal"
	default:
		return "incomparable"
	}
}

// Expr is a rendered expression: a default value, an attribute value, a
// return annotation or a base class reference.
type Expr interface {
	String() string

	// Equal reports whether the receiver equals other. It returns
	// ErrIncomparable (or any other error) when equality is undefined.
	Equal(other Expr) (bool, error)
}

// Compare compares two possibly-nil expressions.
// Both nil is Equal, exactly one nil is NotEqual, and a failed Equal call is
// Incomparable. Callers decide which way Incomparable falls.
func Compare(a, b Expr) Equality {
	if a == nil && b == nil {
		return Equal
	}
	if a == nil || b == nil {
		return NotEqual
	}
	eq, err := a.Equal(b)
	if err != nil {
		return Incomparable
	}
	if eq {
		return Equal
	}
	return NotEqual
}

// Literal is an expression known only by its source text, e.g. "0", "True"
// or "(int, error)".
type Literal string

func (l Literal) String() string { return string(l) }

// Equal compares literals by text. Against any other expression type the
// comparison is delegated to that expression, except for Expression which is
// never equal to a literal.
func (l Literal) Equal(other Expr) (bool, error) {
	switch o := other.(type) {
	case Literal:
		return l == o, nil
	case Expression:
		return false, nil
	default:
		return other.Equal(l)
	}
}

// Name is a reference to a named declaration. Source is the text as written,
// Full is the resolved path used for equality.
type Name struct {
	Source string
	Full   string
}

func (n Name) String() string { return n.Source }

// Equal compares two names by their resolved path. Names cannot be compared
// with anything else.
func (n Name) Equal(other Expr) (bool, error) {
	o, ok := other.(Name)
	if !ok {
		return false, ErrIncomparable
	}
	return n.Full == o.Full, nil
}

// Expression is a compound expression made of ordered parts, such as
// "dict[str, int]" split into names and punctuation.
type Expression []Expr

func (e Expression) String() string {
	var sb strings.Builder
	for _, part := range e {
		if part != nil {
			sb.WriteString(part.String())
		}
	}
	return sb.String()
}

// Equal compares expressions part by part. If any pair of parts cannot be
// compared, the whole comparison fails.
func (e Expression) Equal(other Expr) (bool, error) {
	o, ok := other.(Expression)
	if !ok {
		return false, nil
	}
	if len(e) != len(o) {
		return false, nil
	}
	for i := range e {
		switch Compare(e[i], o[i]) {
		case Incomparable:
			return false, ErrIncomparable
		case NotEqual:
			return false, nil
		}
	}
	return true, nil
}

// Opaque is a value whose equality is undefined, such as an array literal
// whose comparison is element-wise rather than boolean.
type Opaque struct {
	Repr string
}

func (o Opaque) String() string { return o.Repr }

// Equal always fails.
func (o Opaque) Equal(Expr) (bool, error) {
	return false, ErrIncomparable
}
