package apiscan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/breakage"
	"github.com/emenda-labs/apicompat/core/compat"
)

const testModule = "github.com/acme/testmod"

func testdataDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file path")
	}
	return filepath.Join(filepath.Dir(file), "testdata")
}

func scanFixture(t *testing.T, version string) *apitree.Node {
	t.Helper()
	root, err := Scan(context.Background(), filepath.Join(testdataDir(t), version), testModule)
	if err != nil {
		t.Fatalf("Scan(%s): %v", version, err)
	}
	return root
}

// lookup follows a chain of member names from root.
func lookup(root *apitree.Node, names ...string) (*apitree.Node, bool) {
	cur := root
	for _, name := range names {
		next, ok := cur.Member(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func TestScan_OldFixture(t *testing.T) {
	root := scanFixture(t, "old")

	if root.Path != testModule || root.Kind != apitree.KindModule {
		t.Fatalf("root = %s %q", root.Kind, root.Path)
	}

	expected := []struct {
		names []string
		kind  apitree.Kind
		path  string
	}{
		{[]string{"DoWork"}, apitree.KindFunction, testModule + ".DoWork"},
		{[]string{"Variadic"}, apitree.KindFunction, testModule + ".Variadic"},
		{[]string{"Config"}, apitree.KindClass, testModule + ".Config"},
		{[]string{"Config", "Host"}, apitree.KindAttribute, testModule + ".Config.Host"},
		{[]string{"Config", "Validate"}, apitree.KindFunction, testModule + ".Config.Validate"},
		{[]string{"Config", "Apply"}, apitree.KindFunction, testModule + ".Config.Apply"},
		{[]string{"Handler"}, apitree.KindClass, testModule + ".Handler"},
		{[]string{"Handler", "Close"}, apitree.KindFunction, testModule + ".Handler.Close"},
		{[]string{"Token"}, apitree.KindAttribute, testModule + ".Token"},
		{[]string{"Settings"}, apitree.KindAlias, testModule + ".Settings"},
		{[]string{"MaxRetries"}, apitree.KindAttribute, testModule + ".MaxRetries"},
		{[]string{"ComputeHash"}, apitree.KindAttribute, testModule + ".ComputeHash"},
		{[]string{"sub"}, apitree.KindModule, testModule + "/sub"},
		{[]string{"sub", "SubFunc"}, apitree.KindFunction, testModule + "/sub.SubFunc"},
		{[]string{"sub", "SubType", "Value"}, apitree.KindAttribute, testModule + "/sub.SubType.Value"},
	}

	for _, exp := range expected {
		n, ok := lookup(root, exp.names...)
		if !ok {
			t.Errorf("missing %v", exp.names)
			continue
		}
		if n.Kind != exp.kind {
			t.Errorf("%v kind = %s, want %s", exp.names, n.Kind, exp.kind)
		}
		if n.Path != exp.path {
			t.Errorf("%v path = %q, want %q", exp.names, n.Path, exp.path)
		}
	}

	unwanted := [][]string{
		{"unexportedType"},
		{"Config", "secret"},
		{"internal"},
		{"cmd"},
		{"TestHelper"},
		{"Broken"},
	}
	for _, names := range unwanted {
		if _, ok := lookup(root, names...); ok {
			t.Errorf("unexpected member %v", names)
		}
	}
}

func TestScan_Signatures(t *testing.T) {
	root := scanFixture(t, "old")

	doWork, _ := root.Member("DoWork")
	if got := doWork.Parameters.String(); got != "(arg0: context.Context, arg1: string)" {
		t.Errorf("DoWork parameters = %s", got)
	}
	if got := doWork.Returns.String(); got != "(string, error)" {
		t.Errorf("DoWork returns = %s", got)
	}

	variadic, _ := root.Member("Variadic")
	if p := variadic.Parameters.At(0); p.Kind != apitree.VariadicPositional {
		t.Errorf("Variadic arg0 kind = %s", p.Kind)
	}

	simple, _ := root.Member("SimpleFunc")
	if simple.Returns != nil || simple.Parameters.Len() != 0 {
		t.Errorf("SimpleFunc = %s -> %v", simple.Parameters, simple.Returns)
	}

	maxRetries, _ := root.Member("MaxRetries")
	if maxRetries.Value.String() != "3" || maxRetries.Annotation.String() != "int" {
		t.Errorf("MaxRetries = %v: %v", maxRetries.Value, maxRetries.Annotation)
	}

	mode, _ := root.Member("Mode")
	if mode.Value.String() != `"fast"` || mode.Annotation != nil {
		t.Errorf("Mode = %v: %v", mode.Value, mode.Annotation)
	}

	token, _ := root.Member("Token")
	if token.Value.String() != "string" {
		t.Errorf("Token value = %v", token.Value)
	}

	subType, _ := lookup(root, "sub", "SubType")
	var bases []string
	for _, b := range subType.Bases {
		bases = append(bases, b.String())
	}
	if !slices.Equal(bases, []string{"fmt.Stringer", "io.Reader"}) {
		t.Errorf("SubType bases = %v", bases)
	}

	host, _ := lookup(root, "Config", "Host")
	if host.Filepath != "api.go" || host.Lineno == 0 {
		t.Errorf("Host location = %s", host.Location())
	}
}

func TestScan_AliasResolved(t *testing.T) {
	root := scanFixture(t, "old")

	alias, _ := root.Member("Settings")
	if alias.TargetPath != testModule+".Config" {
		t.Errorf("TargetPath = %q", alias.TargetPath)
	}
	config, _ := root.Member("Config")
	if alias.Resolve() != config {
		t.Error("alias should resolve to Config")
	}
}

func TestScan_MethodsAfterTypesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package p\n\nfunc (c *Client) Do() error { return nil }\n")
	writeFile(t, filepath.Join(dir, "b.go"), "package p\n\ntype Client struct{}\n")

	root, err := Scan(context.Background(), dir, "example.com/p")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, ok := lookup(root, "Client", "Do"); !ok {
		t.Error("method declared before its receiver type was dropped")
	}
}

func TestScan_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, filepath.Join(testdataDir(t), "old"), testModule); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestScan_FixtureBreakages(t *testing.T) {
	oldRoot := scanFixture(t, "old")
	newRoot := scanFixture(t, "new")

	type found struct {
		kind breakage.Kind
		path string
	}
	var got []found
	for b := range compat.FindBreakingChanges(oldRoot, newRoot) {
		got = append(got, found{b.Kind(), b.Object().Path})
	}

	want := []found{
		{breakage.KindParameterAddedRequired, testModule + ".DoWork"},
		{breakage.KindParameterRemoved, testModule + ".HelperFunc"},
		{breakage.KindObjectRemoved, testModule + ".OldOnly"},
		{breakage.KindObjectRemoved, testModule + ".Config.Port"},
		{breakage.KindParameterAddedRequired, testModule + ".Config.Apply"},
		{breakage.KindAttributeChangedValue, testModule + ".Token"},
		{breakage.KindAttributeChangedValue, testModule + ".MaxRetries"},
		{breakage.KindObjectChangedKind, testModule + ".ComputeHash"},
		{breakage.KindReturnChangedType, testModule + "/sub.SubFunc"},
		{breakage.KindClassRemovedBase, testModule + "/sub.SubType"},
	}

	if !slices.Equal(got, want) {
		t.Errorf("breakages:\n got  %v\n want %v", got, want)
	}
}

func TestFindSourceRoot(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "github.com", "acme", "testmod@v1.0.0")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(nested, "go.mod"), "module github.com/acme/testmod\n")

	got, err := FindSourceRoot(dir)
	if err != nil {
		t.Fatalf("FindSourceRoot: %v", err)
	}
	if got != nested {
		t.Errorf("FindSourceRoot = %q, want %q", got, nested)
	}

	if _, err := FindSourceRoot(t.TempDir()); err == nil {
		t.Error("expected error when no go.mod exists")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
