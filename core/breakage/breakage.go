package breakage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emenda-labs/apicompat/core/apitree"
)

// Breakage is a single detected incompatibility between two API versions.
// It is immutable once created.
//
// The subject is the node from the new tree, except for removals where only
// the old node exists. Old and new values are heterogeneous: a Parameter, an
// apitree.Kind, an Expr, a list of base expressions, a Node, or nil.
type Breakage struct {
	kind     Kind
	obj      *apitree.Node
	oldValue any
	newValue any
	details  string
}

// New creates a breakage record.
func New(kind Kind, obj *apitree.Node, oldValue, newValue any, details string) Breakage {
	return Breakage{
		kind:     kind,
		obj:      obj,
		oldValue: oldValue,
		newValue: newValue,
		details:  details,
	}
}

// Kind returns the breakage kind.
func (b Breakage) Kind() Kind { return b.kind }

// Object returns the subject node.
func (b Breakage) Object() *apitree.Node { return b.obj }

// OldValue returns the value before the change.
func (b Breakage) OldValue() any { return b.oldValue }

// NewValue returns the value after the change.
func (b Breakage) NewValue() any { return b.newValue }

// Details returns extra context, possibly empty.
func (b Breakage) Details() string { return b.details }

// severityOverrides adjust the default severity of specific kinds per instance.
var severityOverrides = map[Kind]func(b Breakage, base Severity) Severity{
	KindParameterMoved: func(b Breakage, base Severity) Severity {
		if p, ok := b.oldValue.(apitree.Parameter); ok && p.Default == nil {
			return base.Up()
		}
		return base
	},
}

// Severity returns how disruptive this breakage is.
func (b Breakage) Severity() Severity {
	base := b.kind.DefaultSeverity()
	if override, ok := severityOverrides[b.kind]; ok {
		return override(b, base)
	}
	return base
}

func (b Breakage) String() string {
	return b.kind.Description()
}

// Explain renders a multi-line human-readable report of the breakage.
func (b Breakage) Explain() string {
	var sb strings.Builder
	if b.obj != nil {
		if loc := b.obj.Location(); loc != b.obj.CanonicalPath() {
			sb.WriteString(loc)
			sb.WriteString(": ")
		}
		sb.WriteString(b.obj.CanonicalPath())
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "%s (%s):", b.kind.Description(), b.Severity())
	fmt.Fprintf(&sb, "\n  Old value: %s", formatValue(b.oldValue))
	fmt.Fprintf(&sb, "\n  New value: %s", formatValue(b.newValue))
	if b.details != "" {
		fmt.Fprintf(&sb, "\n  Details: %s", b.details)
	}
	return sb.String()
}

// AsDict returns a serialization-ready view with the keys kind, object_path,
// old_value and new_value. With full set, parameters and nodes are expanded
// into nested maps instead of strings. Severity is not included; read it from
// the Severity method.
func (b Breakage) AsDict(full bool) map[string]any {
	path := ""
	if b.obj != nil {
		path = b.obj.Path
	}
	return map[string]any{
		"kind":        string(b.kind),
		"object_path": path,
		"old_value":   dictValue(b.oldValue, full),
		"new_value":   dictValue(b.newValue, full),
	}
}

// MarshalJSON encodes the breakage as AsDict(false).
func (b Breakage) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.AsDict(false))
}

const noValue = "(none)"

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return noValue
	case apitree.Parameter:
		return val.String()
	case *apitree.Node:
		if val == nil {
			return noValue
		}
		return val.CanonicalPath()
	case apitree.Kind:
		return string(val)
	case []apitree.Expr:
		return formatExprs(val)
	case apitree.Expr:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatExprs(exprs []apitree.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = formatValue(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func dictValue(v any, full bool) any {
	if v == nil {
		return nil
	}
	if !full {
		return formatValue(v)
	}
	switch val := v.(type) {
	case apitree.Parameter:
		return map[string]any{
			"name":       val.Name,
			"kind":       string(val.Kind),
			"default":    exprOrNil(val.Default),
			"annotation": exprOrNil(val.Annotation),
		}
	case *apitree.Node:
		if val == nil {
			return nil
		}
		return map[string]any{
			"name":     val.Name,
			"kind":     string(val.Kind),
			"path":     val.Path,
			"filepath": val.Filepath,
			"lineno":   val.Lineno,
		}
	case []apitree.Expr:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = exprOrNil(e)
		}
		return out
	default:
		return formatValue(v)
	}
}

func exprOrNil(e apitree.Expr) any {
	if e == nil {
		return nil
	}
	return e.String()
}
