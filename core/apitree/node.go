package apitree

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Kind identifies what sort of declaration a Node is.
type Kind string

const (
	KindModule    Kind = "module"
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindAttribute Kind = "attribute"
	KindAlias     Kind = "alias"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindModule, KindClass, KindFunction, KindAttribute, KindAlias:
		return true
	}
	return false
}

// maxAliasHops bounds alias resolution so that cyclic re-exports terminate.
const maxAliasHops = 32

// Node is a declaration in an API tree. Which fields are meaningful depends
// on Kind: Parameters and Returns for functions, Value and Annotation for
// attributes, Bases for classes, TargetPath and Target for aliases.
//
// A tree must not be modified while it is being compared.
type Node struct {
	Name     string
	Kind     Kind
	Path     string
	Filepath string
	Lineno   int
	Parent   *Node

	// Exports is the explicit export list of a module, nil when the module
	// does not declare one.
	Exports []string

	Parameters Parameters
	Returns    Expr

	Value      Expr
	Annotation Expr

	Bases []Expr

	TargetPath string
	Target     *Node

	members     []*Node
	memberIndex map[string]int
}

// NewModule creates a module node.
func NewModule(name string) *Node {
	return &Node{Name: name, Kind: KindModule, Path: name}
}

// NewClass creates a class node with the given base classes.
func NewClass(name string, bases ...Expr) *Node {
	return &Node{Name: name, Kind: KindClass, Path: name, Bases: bases}
}

// NewFunction creates a function node. returns may be nil.
func NewFunction(name string, returns Expr, params ...Parameter) *Node {
	return &Node{
		Name:       name,
		Kind:       KindFunction,
		Path:       name,
		Parameters: NewParameters(params...),
		Returns:    returns,
	}
}

// NewAttribute creates an attribute node. value may be nil.
func NewAttribute(name string, value Expr) *Node {
	return &Node{Name: name, Kind: KindAttribute, Path: name, Value: value}
}

// NewAlias creates an alias pointing at targetPath. Target stays nil until
// a front-end resolves it.
func NewAlias(name, targetPath string) *Node {
	return &Node{Name: name, Kind: KindAlias, Path: name, TargetPath: targetPath}
}

// AddMember appends child to n's members and sets its parent. The paths of
// child and its descendants are derived from n's path. Adding a member with
// an existing name replaces the earlier one in place.
func (n *Node) AddMember(child *Node) *Node {
	child.Parent = n
	child.derivePaths()
	if n.memberIndex == nil {
		n.memberIndex = make(map[string]int)
	}
	if i, ok := n.memberIndex[child.Name]; ok {
		n.members[i] = child
		return child
	}
	n.memberIndex[child.Name] = len(n.members)
	n.members = append(n.members, child)
	return child
}

func (n *Node) derivePaths() {
	if n.Parent != nil && n.Parent.Path != "" {
		n.Path = n.Parent.Path + "." + n.Name
	}
	for _, m := range n.members {
		m.derivePaths()
	}
}

// Member returns the direct member with the given name.
func (n *Node) Member(name string) (*Node, bool) {
	i, ok := n.memberIndex[name]
	if !ok {
		return nil, false
	}
	return n.members[i], true
}

// Members iterates over direct members in insertion order.
func (n *Node) Members() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for _, m := range n.members {
			if !yield(m.Name, m) {
				return
			}
		}
	}
}

// MemberCount returns the number of direct members.
func (n *Node) MemberCount() int { return len(n.members) }

// IsAlias reports whether n is an indirection to another declaration.
func (n *Node) IsAlias() bool { return n.Kind == KindAlias }

// CanonicalPath is the path of the declaration n stands for: the target path
// for aliases, the node's own path otherwise.
func (n *Node) CanonicalPath() string {
	if n.IsAlias() && n.TargetPath != "" {
		return n.TargetPath
	}
	return n.Path
}

// Resolve follows resolved alias targets and returns the final declaration.
// Unresolved aliases are returned as is.
func (n *Node) Resolve() *Node {
	cur := n
	for range maxAliasHops {
		if !cur.IsAlias() || cur.Target == nil {
			return cur
		}
		cur = cur.Target
	}
	return cur
}

// Location returns "file:line" for reporting, falling back to the path when
// the node has no source file.
func (n *Node) Location() string {
	if n.Filepath == "" {
		return n.Path
	}
	return fmt.Sprintf("%s:%d", n.Filepath, n.Lineno)
}

// IsExported reports whether n is part of its parent's public interface.
// A parent's explicit export list is authoritative. Without one, explicit
// asks for a declared export and is false, while implicit export covers every
// non-private name.
func (n *Node) IsExported(explicit bool) bool {
	if n.Parent != nil && n.Parent.Exports != nil {
		return slices.Contains(n.Parent.Exports, n.Name)
	}
	if explicit {
		return false
	}
	return !IsPrivateName(n.Name)
}

// IsPrivateName reports whether name follows the private naming convention.
func IsPrivateName(name string) bool {
	return strings.HasPrefix(name, "_")
}
