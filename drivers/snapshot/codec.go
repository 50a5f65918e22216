// Package snapshot reads and writes API trees as JSON or YAML documents.
//
// A snapshot is a nested object per node with the members kept as an ordered
// list. Expressions are encoded as follows: a string is a literal, an object
// {"name", "full"} is a resolved name, an array is a compound expression and
// {"opaque"} is a value that cannot be compared.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/apicompat/core/apitree"
)

// Format is a snapshot serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// wireNode is the serialized form of an apitree.Node.
type wireNode struct {
	Name       string          `json:"name" yaml:"name"`
	Kind       apitree.Kind    `json:"kind" yaml:"kind"`
	Path       string          `json:"path,omitempty" yaml:"path,omitempty"`
	Filepath   string          `json:"filepath,omitempty" yaml:"filepath,omitempty"`
	Lineno     int             `json:"lineno,omitempty" yaml:"lineno,omitempty"`
	Exports    []string        `json:"exports,omitempty" yaml:"exports,omitempty"`
	Parameters []wireParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Returns    *wireExpr       `json:"returns,omitempty" yaml:"returns,omitempty"`
	Value      *wireExpr       `json:"value,omitempty" yaml:"value,omitempty"`
	Annotation *wireExpr       `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Bases      []*wireExpr     `json:"bases,omitempty" yaml:"bases,omitempty"`
	TargetPath string          `json:"target_path,omitempty" yaml:"target_path,omitempty"`
	Members    []*wireNode     `json:"members,omitempty" yaml:"members,omitempty"`
}

type wireParameter struct {
	Name       string                `json:"name" yaml:"name"`
	Kind       apitree.ParameterKind `json:"kind" yaml:"kind"`
	Default    *wireExpr             `json:"default,omitempty" yaml:"default,omitempty"`
	Annotation *wireExpr             `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

// wireExpr holds an encoded expression. Decoding keeps the source text of
// scalars: YAML's 0x10 stays "0x10" and JSON's 1.0 stays "1.0".
type wireExpr struct {
	value any
}

func newWireExpr(e apitree.Expr) *wireExpr {
	if e == nil {
		return nil
	}
	return &wireExpr{value: exprToWire(e)}
}

// expr decodes w; a nil w is a missing expression.
func (w *wireExpr) expr() (apitree.Expr, error) {
	if w == nil {
		return nil, nil
	}
	return exprFromWire(w.value)
}

func (w wireExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.value)
}

func (w wireExpr) MarshalYAML() (any, error) {
	return w.value, nil
}

func (w *wireExpr) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(&w.value)
}

func (w *wireExpr) UnmarshalYAML(node *yaml.Node) error {
	v, err := yamlValue(node)
	if err != nil {
		return err
	}
	w.value = v
	return nil
}

// yamlValue converts a YAML node to strings, lists and maps without
// resolving scalars, so dates, hex numbers and floats keep their text.
func yamlValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yamlValue(node.Content[0])
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return node.Value, nil
	case yaml.SequenceNode:
		parts := make([]any, len(node.Content))
		for i, child := range node.Content {
			v, err := yamlValue(child)
			if err != nil {
				return nil, err
			}
			parts[i] = v
		}
		return parts, nil
	case yaml.MappingNode:
		m := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := yamlValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[node.Content[i].Value] = v
		}
		return m, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

// Encode writes root to w.
func Encode(w io.Writer, root *apitree.Node, format Format) error {
	doc := toWire(root)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding JSON snapshot: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML snapshot: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode reads a tree from r. Alias targets found in the tree are resolved.
func Decode(r io.Reader, format Format) (*apitree.Node, error) {
	var doc wireNode
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding JSON snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding YAML snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	index := make(map[string]*apitree.Node)
	root, err := fromWire(&doc, nil, index)
	if err != nil {
		return nil, err
	}
	for _, n := range index {
		if n.IsAlias() {
			n.Target = index[n.TargetPath]
		}
	}
	return root, nil
}

func toWire(n *apitree.Node) *wireNode {
	w := &wireNode{
		Name:       n.Name,
		Kind:       n.Kind,
		Path:       n.Path,
		Filepath:   n.Filepath,
		Lineno:     n.Lineno,
		Exports:    n.Exports,
		Returns:    newWireExpr(n.Returns),
		Value:      newWireExpr(n.Value),
		Annotation: newWireExpr(n.Annotation),
		TargetPath: n.TargetPath,
	}
	for _, p := range n.Parameters.All() {
		w.Parameters = append(w.Parameters, wireParameter{
			Name:       p.Name,
			Kind:       p.Kind,
			Default:    newWireExpr(p.Default),
			Annotation: newWireExpr(p.Annotation),
		})
	}
	for _, b := range n.Bases {
		w.Bases = append(w.Bases, newWireExpr(b))
	}
	for _, m := range n.Members() {
		w.Members = append(w.Members, toWire(m))
	}
	return w
}

func fromWire(w *wireNode, parent *apitree.Node, index map[string]*apitree.Node) (*apitree.Node, error) {
	if w.Name == "" {
		return nil, fmt.Errorf("node without name under %q", parentPath(parent))
	}
	if !w.Kind.Valid() {
		return nil, fmt.Errorf("node %q: unknown kind %q", w.Name, w.Kind)
	}

	n := &apitree.Node{
		Name:       w.Name,
		Kind:       w.Kind,
		Path:       w.Name,
		Filepath:   w.Filepath,
		Lineno:     w.Lineno,
		Exports:    w.Exports,
		TargetPath: w.TargetPath,
	}

	var err error
	if n.Returns, err = w.Returns.expr(); err != nil {
		return nil, fmt.Errorf("node %q returns: %w", w.Name, err)
	}
	if n.Value, err = w.Value.expr(); err != nil {
		return nil, fmt.Errorf("node %q value: %w", w.Name, err)
	}
	if n.Annotation, err = w.Annotation.expr(); err != nil {
		return nil, fmt.Errorf("node %q annotation: %w", w.Name, err)
	}

	params := make([]apitree.Parameter, 0, len(w.Parameters))
	for _, wp := range w.Parameters {
		if !wp.Kind.Valid() {
			return nil, fmt.Errorf("node %q parameter %q: unknown kind %q", w.Name, wp.Name, wp.Kind)
		}
		p := apitree.Parameter{Name: wp.Name, Kind: wp.Kind}
		if p.Default, err = wp.Default.expr(); err != nil {
			return nil, fmt.Errorf("node %q parameter %q default: %w", w.Name, wp.Name, err)
		}
		if p.Annotation, err = wp.Annotation.expr(); err != nil {
			return nil, fmt.Errorf("node %q parameter %q annotation: %w", w.Name, wp.Name, err)
		}
		params = append(params, p)
	}
	n.Parameters = apitree.NewParameters(params...)

	for _, wb := range w.Bases {
		b, err := wb.expr()
		if err != nil {
			return nil, fmt.Errorf("node %q base: %w", w.Name, err)
		}
		n.Bases = append(n.Bases, b)
	}

	if parent != nil {
		parent.AddMember(n)
	}
	// Paths that do not follow the dotted convention (Go package paths) are
	// kept as recorded.
	if w.Path != "" {
		n.Path = w.Path
	}
	index[n.Path] = n

	for _, wm := range w.Members {
		if _, err := fromWire(wm, n, index); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func parentPath(n *apitree.Node) string {
	if n == nil {
		return ""
	}
	return n.Path
}

func exprToWire(e apitree.Expr) any {
	switch v := e.(type) {
	case nil:
		return nil
	case apitree.Literal:
		return string(v)
	case apitree.Name:
		return map[string]any{"name": v.Source, "full": v.Full}
	case apitree.Opaque:
		return map[string]any{"opaque": v.Repr}
	case apitree.Expression:
		parts := make([]any, len(v))
		for i, part := range v {
			parts[i] = exprToWire(part)
		}
		return parts
	default:
		return map[string]any{"opaque": e.String()}
	}
}

func exprFromWire(v any) (apitree.Expr, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return apitree.Literal(val), nil
	case json.Number:
		return apitree.Literal(val.String()), nil
	case bool:
		return apitree.Literal(fmt.Sprint(val)), nil
	case []any:
		parts := make(apitree.Expression, len(val))
		for i, part := range val {
			e, err := exprFromWire(part)
			if err != nil {
				return nil, err
			}
			if e == nil {
				return nil, fmt.Errorf("null element in expression")
			}
			parts[i] = e
		}
		return parts, nil
	case map[string]any:
		if repr, ok := val["opaque"].(string); ok {
			return apitree.Opaque{Repr: repr}, nil
		}
		name, okName := val["name"].(string)
		full, okFull := val["full"].(string)
		if okName && okFull {
			return apitree.Name{Source: name, Full: full}, nil
		}
		return nil, fmt.Errorf("unrecognized expression object %v", val)
	default:
		return nil, fmt.Errorf("unrecognized expression %T", v)
	}
}
