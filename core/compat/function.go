package compat

import (
	"fmt"

	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/breakage"
)

// function compares parameters and return types of two versions of a
// function. Parameters are matched by name.
// TODO: decorators are not taken into account.
func (w *walker) function(oldFunc, newFunc *apitree.Node) bool {
	newParams := newFunc.Parameters

	for i, oldParam := range oldFunc.Parameters.All() {
		newParam, ok := newParams.Get(oldParam.Name)
		if !ok {
			if !w.emit(breakage.KindParameterRemoved, newFunc, oldParam, nil, "") {
				return false
			}
			continue
		}

		if newParam.Required() && !oldParam.Required() {
			if !w.emit(breakage.KindParameterChangedRequired, newFunc, oldParam, newParam, "") {
				return false
			}
		}

		if oldParam.Kind.Positional() {
			if !newParam.Kind.Positional() {
				if !w.emit(breakage.KindParameterChangedKind, newFunc, oldParam, newParam, "") {
					return false
				}
			} else if j := newParams.Index(oldParam.Name); j != i {
				if !w.emit(breakage.KindParameterMoved, newFunc, oldParam, newParam, movedDetails(i, j)) {
					return false
				}
			}
		}

		// Undefined equality counts as a change.
		if apitree.Compare(oldParam.Default, newParam.Default) != apitree.Equal {
			if !w.emit(breakage.KindParameterChangedDefault, newFunc, oldParam, newParam, "") {
				return false
			}
		}
	}

	for _, newParam := range newParams.All() {
		if !oldFunc.Parameters.Has(newParam.Name) && newParam.Required() {
			if !w.emit(breakage.KindParameterAddedRequired, newFunc, nil, newParam, "") {
				return false
			}
		}
	}

	if !returnsCompatible(oldFunc.Returns, newFunc.Returns) {
		if !w.emit(breakage.KindReturnChangedType, newFunc, oldFunc.Returns, newFunc.Returns, "") {
			return false
		}
	}
	return true
}

func movedDetails(from, to int) string {
	return fmt.Sprintf("position: from %d to %d (%+d)", from, to, to-from)
}

// returnsCompatible reports whether callers relying on the old return type
// still work with the new one. Dropping a declared return type is
// incompatible. Subtype relationships are not resolved, so anything that is
// not trivially decided counts as compatible.
func returnsCompatible(oldReturns, newReturns apitree.Expr) bool {
	if oldReturns == nil {
		return true
	}
	if newReturns == nil {
		return false
	}
	if apitree.Compare(newReturns, oldReturns) == apitree.Equal {
		return true
	}
	// TODO: check whether newReturns is a subtype of oldReturns.
	return true
}
