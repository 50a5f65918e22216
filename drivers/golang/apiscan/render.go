package apiscan

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/emenda-labs/apicompat/core/apitree"
)

// renderTypeExpr converts a type expression to its canonical string form.
// Struct and interface literals are abbreviated.
func renderTypeExpr(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name

	case *ast.SelectorExpr:
		return renderTypeExpr(e.X) + "." + e.Sel.Name

	case *ast.StarExpr:
		return "*" + renderTypeExpr(e.X)

	case *ast.ArrayType:
		if e.Len != nil {
			return fmt.Sprintf("[%s]%s", renderTypeExpr(e.Len), renderTypeExpr(e.Elt))
		}
		return "[]" + renderTypeExpr(e.Elt)

	case *ast.MapType:
		return "map[" + renderTypeExpr(e.Key) + "]" + renderTypeExpr(e.Value)

	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{...}"

	case *ast.FuncType:
		return "func" + renderFuncType(e)

	case *ast.Ellipsis:
		return "..." + renderTypeExpr(e.Elt)

	case *ast.ChanType:
		switch e.Dir {
		case ast.RECV:
			return "<-chan " + renderTypeExpr(e.Value)
		case ast.SEND:
			return "chan<- " + renderTypeExpr(e.Value)
		default:
			return "chan " + renderTypeExpr(e.Value)
		}

	case *ast.StructType:
		if e.Fields == nil || len(e.Fields.List) == 0 {
			return "struct{}"
		}
		return "struct{...}"

	case *ast.IndexExpr:
		return renderTypeExpr(e.X) + "[" + renderTypeExpr(e.Index) + "]"

	case *ast.IndexListExpr:
		indices := make([]string, len(e.Indices))
		for i, idx := range e.Indices {
			indices[i] = renderTypeExpr(idx)
		}
		return renderTypeExpr(e.X) + "[" + strings.Join(indices, ", ") + "]"

	case *ast.ParenExpr:
		return "(" + renderTypeExpr(e.X) + ")"

	case *ast.BasicLit:
		return e.Value

	default:
		return "unknown"
	}
}

// fieldTypes expands a field list to one type string per declared name.
// Unnamed fields count once.
func fieldTypes(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}
	var types []string
	for _, field := range fields.List {
		typeStr := renderTypeExpr(field.Type)
		n := max(len(field.Names), 1)
		for range n {
			types = append(types, typeStr)
		}
	}
	return types
}

// funcParameters converts Go parameters to positional-only parameters named
// by position. Go callers never pass arguments by name, so a renamed
// parameter is not a change. A trailing ...T becomes variadic.
func funcParameters(funcType *ast.FuncType) []apitree.Parameter {
	if funcType == nil {
		return nil
	}
	types := fieldTypes(funcType.Params)
	params := make([]apitree.Parameter, len(types))
	for i, typeStr := range types {
		kind := apitree.PositionalOnly
		if strings.HasPrefix(typeStr, "...") {
			kind = apitree.VariadicPositional
		}
		params[i] = apitree.Parameter{
			Name:       fmt.Sprintf("arg%d", i),
			Kind:       kind,
			Annotation: apitree.Literal(typeStr),
		}
	}
	return params
}

// funcReturns renders the result list, or nil when the function returns
// nothing. Format: "error" or "(string, error)".
func funcReturns(funcType *ast.FuncType) apitree.Expr {
	if funcType == nil {
		return nil
	}
	results := fieldTypes(funcType.Results)
	switch len(results) {
	case 0:
		return nil
	case 1:
		return apitree.Literal(results[0])
	default:
		return apitree.Literal("(" + strings.Join(results, ", ") + ")")
	}
}

// renderFuncType renders a function type as "(int, string) error".
func renderFuncType(funcType *ast.FuncType) string {
	paramStr := "(" + strings.Join(fieldTypes(funcType.Params), ", ") + ")"
	if ret := funcReturns(funcType); ret != nil {
		return paramStr + " " + ret.String()
	}
	return paramStr
}
