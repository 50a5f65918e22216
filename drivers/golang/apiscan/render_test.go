package apiscan

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/emenda-labs/apicompat/core/apitree"
)

// parseType returns the expression of "type T = <src>".
func parseType(t *testing.T, src string) ast.Expr {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "", "package p\ntype T = "+src, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return file.Decls[0].(*ast.GenDecl).Specs[0].(*ast.TypeSpec).Type
}

// parseFunc returns the type of the first function declared in src.
func parseFunc(t *testing.T, src string) *ast.FuncType {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "", "package p\n"+src, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return file.Decls[0].(*ast.FuncDecl).Type
}

func TestRenderTypeExpr(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"ident", "int", "int"},
		{"selector", "context.Context", "context.Context"},
		{"pointer", "*int", "*int"},
		{"slice", "[]string", "[]string"},
		{"array", "[3]byte", "[3]byte"},
		{"map", "map[string]int", "map[string]int"},
		{"chan_bidir", "chan int", "chan int"},
		{"chan_recv", "<-chan int", "<-chan int"},
		{"chan_send", "chan<- int", "chan<- int"},
		{"empty_interface", "interface{}", "interface{}"},
		{"interface", "interface{ Close() error }", "interface{...}"},
		{"empty_struct", "struct{}", "struct{}"},
		{"struct", "struct{ X int }", "struct{...}"},
		{"func_type", "func(int) error", "func(int) error"},
		{"func_multi", "func(a, b int) (string, error)", "func(int, int) (string, error)"},
		{"generic", "List[int]", "List[int]"},
		{"generic_multi", "Map[string, int]", "Map[string, int]"},
		{"paren", "(int)", "(int)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderTypeExpr(parseType(t, tt.src)); got != tt.want {
				t.Errorf("renderTypeExpr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFuncParameters(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  string
		kinds []apitree.ParameterKind
	}{
		{
			name:  "simple",
			src:   "func F(a int, b string) {}",
			want:  "(arg0: int, arg1: string)",
			kinds: []apitree.ParameterKind{apitree.PositionalOnly, apitree.PositionalOnly},
		},
		{
			name: "none",
			src:  "func F() {}",
			want: "()",
		},
		{
			name:  "shared_type",
			src:   "func F(a, b int) {}",
			want:  "(arg0: int, arg1: int)",
			kinds: []apitree.ParameterKind{apitree.PositionalOnly, apitree.PositionalOnly},
		},
		{
			name:  "unnamed",
			src:   "func F(int, string) {}",
			want:  "(arg0: int, arg1: string)",
			kinds: []apitree.ParameterKind{apitree.PositionalOnly, apitree.PositionalOnly},
		},
		{
			name:  "variadic",
			src:   "func F(a int, rest ...string) {}",
			want:  "(arg0: int, *arg1: ...string)",
			kinds: []apitree.ParameterKind{apitree.PositionalOnly, apitree.VariadicPositional},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := apitree.NewParameters(funcParameters(parseFunc(t, tt.src))...)
			if got := params.String(); got != tt.want {
				t.Errorf("parameters = %q, want %q", got, tt.want)
			}
			for i, kind := range tt.kinds {
				if got := params.At(i).Kind; got != kind {
					t.Errorf("arg%d kind = %s, want %s", i, got, kind)
				}
			}
		})
	}
}

func TestFuncReturns(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"none", "func F() {}", ""},
		{"single", "func F() error { return nil }", "error"},
		{"multi", "func F() (int, error) { return 0, nil }", "(int, error)"},
		{"named", "func F() (n int, err error) { return }", "(int, error)"},
		{"shared_named", "func F() (a, b int) { return }", "(int, int)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := funcReturns(parseFunc(t, tt.src))
			got := ""
			if ret != nil {
				got = ret.String()
			}
			if got != tt.want {
				t.Errorf("returns = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBaseTypeName(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"Client", "Client"},
		{"*Client", "Client"},
		{"List[T]", "List"},
		{"*Map[K, V]", "Map"},
		{"pkg.Remote", "Remote"},
		{"[]int", ""},
	}

	for _, tt := range tests {
		if got := baseTypeName(parseType(t, tt.src)); got != tt.want {
			t.Errorf("baseTypeName(%s) = %q, want %q", tt.src, got, tt.want)
		}
	}
}
