// Package golang implements the Go language driver: module source comes from
// a module proxy and API trees are built with the apiscan front-end.
package golang

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/mod/module"
	"golang.org/x/sync/errgroup"

	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/driver"
	"github.com/emenda-labs/apicompat/drivers/golang/apiscan"
	"github.com/emenda-labs/apicompat/pkg/archive"
	"github.com/emenda-labs/apicompat/pkg/gomod"
	"github.com/emenda-labs/apicompat/pkg/goproxy"
)

var (
	_ driver.LanguageDriver  = (*Driver)(nil)
	_ driver.VersionResolver = (*Driver)(nil)
)

// Driver implements driver.LanguageDriver for Go modules.
type Driver struct {
	proxyClient *goproxy.Client
}

// NewDriver creates a Driver fetching through client.
func NewDriver(client *goproxy.Client) *Driver {
	return &Driver{proxyClient: client}
}

// FetchSource downloads the module zip from the proxy and extracts it to a temp directory.
func (d *Driver) FetchSource(ctx context.Context, mod, version string) (string, func(), error) {
	slog.Info("downloading module", "module", mod, "version", version)
	data, err := d.proxyClient.DownloadZip(ctx, mod, version)
	if err != nil {
		return "", nil, fmt.Errorf("downloading zip for %s@%s: %w", mod, version, err)
	}

	dir, cleanup, err := archive.ExtractModuleZip(data, module.Version{Path: mod, Version: version})
	if err != nil {
		return "", nil, fmt.Errorf("extracting zip for %s@%s: %w", mod, version, err)
	}

	return dir, cleanup, nil
}

// LoadTree locates the module root under path, reads its module path from
// go.mod and scans the exported API.
func (d *Driver) LoadTree(ctx context.Context, path string) (*apitree.Node, error) {
	root, err := apiscan.FindSourceRoot(path)
	if err != nil {
		return nil, fmt.Errorf("finding module root in %s: %w", path, err)
	}

	modPath, err := gomod.FindModulePath(root)
	if err != nil {
		return nil, fmt.Errorf("reading module path from %s: %w", root, err)
	}

	tree, err := apiscan.Scan(ctx, root, modPath)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", modPath, err)
	}
	return tree, nil
}

// PreviousVersion asks the proxy for the release preceding version.
func (d *Driver) PreviousVersion(ctx context.Context, mod, version string) (string, error) {
	return d.proxyClient.PreviousVersion(ctx, mod, version)
}

// LoadVersions fetches and scans two versions of mod concurrently. The
// extracted sources are removed before it returns.
func (d *Driver) LoadVersions(ctx context.Context, mod, oldVersion, newVersion string) (oldTree, newTree *apitree.Node, err error) {
	g, ctx := errgroup.WithContext(ctx)

	load := func(version string, dst **apitree.Node) func() error {
		return func() error {
			dir, cleanup, err := d.FetchSource(ctx, mod, version)
			if err != nil {
				return err
			}
			defer cleanup()

			tree, err := d.LoadTree(ctx, dir)
			if err != nil {
				return fmt.Errorf("loading %s@%s: %w", mod, version, err)
			}
			// Validate the zip contains the module that was asked for.
			if tree.Name != mod {
				return fmt.Errorf("module mismatch: %s@%s declares %s", mod, version, tree.Name)
			}
			*dst = tree
			return nil
		}
	}

	g.Go(load(oldVersion, &oldTree))
	g.Go(load(newVersion, &newTree))
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return oldTree, newTree, nil
}
