// Package compat finds breaking changes between two versions of an API tree.
//
// The comparison walks the old tree and pairs every member with the member of
// the same name in the new tree. Each pair is handed to the rule for its kind:
// modules and classes recurse, functions and attributes are leaves. Breakages
// are produced lazily; a consumer that stops ranging stops the walk.
package compat

import (
	"iter"

	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/breakage"
)

// Options configures a comparison. The zero value skips private members.
type Options struct {
	// IncludePrivate compares members with private names too. When false,
	// private members are skipped unless they are exported by their parent.
	IncludePrivate bool
}

// FindBreakingChanges compares the members of old and new, skipping private
// names. Ranging over the result twice walks the trees twice.
func FindBreakingChanges(old, new *apitree.Node) iter.Seq[breakage.Breakage] {
	return Compare(old, new, Options{})
}

// Compare compares the members of old and new with the given options.
func Compare(old, new *apitree.Node, opts Options) iter.Seq[breakage.Breakage] {
	return func(yield func(breakage.Breakage) bool) {
		w := &walker{ignorePrivate: !opts.IncludePrivate, yield: yield}
		w.members(old, new)
	}
}

// walker carries the consumer callback through the recursion. Every method
// returns false once the consumer has stopped, and callers return at once.
type walker struct {
	ignorePrivate bool
	yield         func(breakage.Breakage) bool
}

func (w *walker) emit(kind breakage.Kind, obj *apitree.Node, oldValue, newValue any, details string) bool {
	return w.yield(breakage.New(kind, obj, oldValue, newValue, details))
}

// members compares every member of the old container with its namesake in
// the new container, in the old container's order.
func (w *walker) members(oldObj, newObj *apitree.Node) bool {
	for name, oldMember := range oldObj.Members() {
		if w.ignorePrivate && apitree.IsPrivateName(name) && !oldMember.IsExported(false) {
			continue
		}

		newMember, ok := newObj.Member(name)
		if !ok {
			if oldMember.IsExported(false) {
				// The old member is both subject and old value; there is no new value.
				if !w.emit(breakage.KindObjectRemoved, oldMember, oldMember, nil, "") {
					return false
				}
			}
			continue
		}

		// TODO: compare alias targets once front-ends resolve them on both sides.
		if oldMember.IsAlias() {
			continue
		}

		newMember = newMember.Resolve()
		if newMember.Kind != oldMember.Kind {
			if !w.emit(breakage.KindObjectChangedKind, newMember, oldMember.Kind, newMember.Kind, "") {
				return false
			}
			continue
		}

		if !w.dispatch(oldMember, newMember) {
			return false
		}
	}
	return true
}

// dispatch routes a pair of same-kind members to the rule for that kind.
func (w *walker) dispatch(oldMember, newMember *apitree.Node) bool {
	switch oldMember.Kind {
	case apitree.KindModule:
		return w.members(oldMember, newMember)
	case apitree.KindClass:
		return w.class(oldMember, newMember)
	case apitree.KindFunction:
		return w.function(oldMember, newMember)
	case apitree.KindAttribute:
		return w.attribute(oldMember, newMember)
	default:
		return true
	}
}
