package compat

import (
	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/breakage"
)

// class reports removed base classes, then compares the class members.
// Reordered or added bases are not reported.
// TODO: compare method resolution orders instead of raw base lists.
func (w *walker) class(oldClass, newClass *apitree.Node) bool {
	if !basesEqual(oldClass.Bases, newClass.Bases) && len(newClass.Bases) < len(oldClass.Bases) {
		if !w.emit(breakage.KindClassRemovedBase, newClass, oldClass.Bases, newClass.Bases, "") {
			return false
		}
	}
	return w.members(oldClass, newClass)
}

// basesEqual compares base lists element by element. A pair that cannot be
// compared counts as different.
func basesEqual(a, b []apitree.Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if apitree.Compare(a[i], b[i]) != apitree.Equal {
			return false
		}
	}
	return true
}

// attribute reports a changed attribute value. Undefined equality counts as
// a change.
func (w *walker) attribute(oldAttr, newAttr *apitree.Node) bool {
	if !attributeTypesCompatible(oldAttr.Annotation, newAttr.Annotation) {
		if !w.emit(breakage.KindAttributeChangedType, newAttr, oldAttr.Annotation, newAttr.Annotation, "") {
			return false
		}
	}
	if apitree.Compare(oldAttr.Value, newAttr.Value) != apitree.Equal {
		if !w.emit(breakage.KindAttributeChangedValue, newAttr, oldAttr.Value, newAttr.Value, "") {
			return false
		}
	}
	return true
}

// attributeTypesCompatible is where a subtype check between annotations
// belongs. Until one exists every pair is compatible, so
// KindAttributeChangedType is never reported.
func attributeTypesCompatible(oldType, newType apitree.Expr) bool {
	return true
}
