package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/mod/semver"

	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/cli"
	"github.com/emenda-labs/apicompat/core/config"
	golangdriver "github.com/emenda-labs/apicompat/drivers/golang"
	"github.com/emenda-labs/apicompat/drivers/snapshot"
	"github.com/emenda-labs/apicompat/pkg/gomod"
	"github.com/emenda-labs/apicompat/pkg/goproxy"
)

// app wires command handlers to the drivers. Drivers are built per run
// because proxy settings come from the resolved configuration.
type app struct {
	globals *cli.GlobalOptions
	stdout  io.Writer
}

func (a *app) config() *config.Config {
	if a.globals.Config == nil {
		return config.Default()
	}
	return a.globals.Config
}

func (a *app) goDriver() *golangdriver.Driver {
	cfg := a.config()
	return golangdriver.NewDriver(goproxy.NewClient(goproxy.Options{
		Proxy:   cfg.Proxy.URL,
		Timeout: cfg.Proxy.Timeout,
		Retries: cfg.Proxy.Retries,
	}))
}

func (a *app) runDiffGo(ctx context.Context, opts cli.DiffGoOptions) error {
	d := a.goDriver()

	from := opts.From
	if from == "" && opts.Repo != "" {
		current, err := gomod.FindModuleVersion(opts.Repo, opts.Module)
		if err != nil {
			return err
		}
		from = current
	}
	if from == "" {
		prev, err := d.PreviousVersion(ctx, opts.Module, opts.To)
		if err != nil {
			return err
		}
		from = prev
	}

	if from == opts.To {
		return fmt.Errorf("module %s is already at %s", opts.Module, opts.To)
	}
	if semver.IsValid(from) && semver.Compare(opts.To, from) < 0 {
		slog.Warn("new version is older than old version", "old", from, "new", opts.To)
	}

	slog.Info("comparing module versions", "module", opts.Module, "old", from, "new", opts.To)
	oldTree, newTree, err := d.LoadVersions(ctx, opts.Module, from, opts.To)
	if err != nil {
		return err
	}
	return cli.ReportBreakages(a.stdout, oldTree, newTree, a.globals)
}

func (a *app) runDiffFiles(ctx context.Context, opts cli.DiffFilesOptions) error {
	oldTree, err := a.loadSide(ctx, opts.Old)
	if err != nil {
		return fmt.Errorf("loading old API: %w", err)
	}
	newTree, err := a.loadSide(ctx, opts.New)
	if err != nil {
		return fmt.Errorf("loading new API: %w", err)
	}
	return cli.ReportBreakages(a.stdout, oldTree, newTree, a.globals)
}

// loadSide reads a snapshot file or scans a Go module directory.
func (a *app) loadSide(ctx context.Context, path string) (*apitree.Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return a.goDriver().LoadTree(ctx, path)
	}
	return snapshot.Load(path)
}

func (a *app) runSnapshot(ctx context.Context, opts cli.SnapshotOptions) error {
	tree, err := a.goDriver().LoadTree(ctx, opts.Dir)
	if err != nil {
		return err
	}
	if err := snapshot.Save(opts.Output, tree); err != nil {
		return err
	}
	slog.Info("wrote snapshot", "module", tree.Name, "path", opts.Output)
	return nil
}
