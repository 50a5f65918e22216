package golang

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"golang.org/x/mod/module"
	modzip "golang.org/x/mod/zip"

	"github.com/emenda-labs/apicompat/core/breakage"
	"github.com/emenda-labs/apicompat/core/compat"
	"github.com/emenda-labs/apicompat/pkg/goproxy"
)

const testModule = "github.com/acme/testmod"

func fixtureDir(t *testing.T, version string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file path")
	}
	return filepath.Join(filepath.Dir(file), "apiscan", "testdata", version)
}

// fakeProxy serves v1.0.0 from the old fixture and v1.1.0 from the new one.
func fakeProxy(t *testing.T, modPath string) *httptest.Server {
	t.Helper()
	zips := map[string][]byte{}
	for version, dir := range map[string]string{"v1.0.0": "old", "v1.1.0": "new"} {
		var buf bytes.Buffer
		mv := module.Version{Path: modPath, Version: version}
		if err := modzip.CreateFromDir(&buf, mv, fixtureDir(t, dir)); err != nil {
			t.Fatalf("CreateFromDir(%s): %v", dir, err)
		}
		zips["/"+modPath+"/@v/"+version+".zip"] = buf.Bytes()
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/"+modPath+"/@v/list" {
			w.Write([]byte("v1.0.0\nv1.1.0\n"))
			return
		}
		data, ok := zips[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testDriver(proxyURL string) *Driver {
	return NewDriver(goproxy.NewClient(goproxy.Options{Proxy: proxyURL, Retries: 1, RetryInterval: time.Millisecond}))
}

func TestLoadTree(t *testing.T) {
	tree, err := testDriver("off").LoadTree(context.Background(), fixtureDir(t, "old"))
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if tree.Name != testModule {
		t.Errorf("root = %q, want %q", tree.Name, testModule)
	}
	if _, ok := tree.Member("DoWork"); !ok {
		t.Error("missing DoWork")
	}
}

func TestLoadVersions(t *testing.T) {
	srv := fakeProxy(t, testModule)
	d := testDriver(srv.URL)

	oldTree, newTree, err := d.LoadVersions(context.Background(), testModule, "v1.0.0", "v1.1.0")
	if err != nil {
		t.Fatalf("LoadVersions: %v", err)
	}

	var kinds []breakage.Kind
	for b := range compat.FindBreakingChanges(oldTree, newTree) {
		kinds = append(kinds, b.Kind())
	}
	if len(kinds) != 10 {
		t.Errorf("got %d breakages: %v", len(kinds), kinds)
	}
	if !slices.Contains(kinds, breakage.KindClassRemovedBase) {
		t.Errorf("breakages %v should include a removed base", kinds)
	}
}

func TestLoadVersions_ModuleMismatch(t *testing.T) {
	// The fixtures declare github.com/acme/testmod in go.mod.
	srv := fakeProxy(t, "github.com/acme/other")
	d := testDriver(srv.URL)

	if _, _, err := d.LoadVersions(context.Background(), "github.com/acme/other", "v1.0.0", "v1.1.0"); err == nil {
		t.Fatal("expected module mismatch error")
	}
}

func TestLoadVersions_MissingVersion(t *testing.T) {
	srv := fakeProxy(t, testModule)
	d := testDriver(srv.URL)

	if _, _, err := d.LoadVersions(context.Background(), testModule, "v1.0.0", "v9.9.9"); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestPreviousVersion(t *testing.T) {
	srv := fakeProxy(t, testModule)

	got, err := testDriver(srv.URL).PreviousVersion(context.Background(), testModule, "v1.1.0")
	if err != nil {
		t.Fatalf("PreviousVersion: %v", err)
	}
	if got != "v1.0.0" {
		t.Errorf("PreviousVersion = %q", got)
	}
}
