package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/mattn/go-isatty"

	"github.com/emenda-labs/apicompat/core/apitree"
	"github.com/emenda-labs/apicompat/core/breakage"
	"github.com/emenda-labs/apicompat/core/compat"
	"github.com/emenda-labs/apicompat/core/config"
	"github.com/emenda-labs/apicompat/core/report"
)

// ReportBreakages compares the two trees and writes the report to w.
// It returns an error wrapping report.ErrBreakingChanges when a breakage
// reaches the configured failure threshold.
//
// In quiet mode nothing is written and the walk stops at the first breakage
// reaching the threshold, or at the first breakage at all when no threshold
// is configured.
func ReportBreakages(w io.Writer, oldTree, newTree *apitree.Node, globals *GlobalOptions) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}
	breakages := compat.Compare(oldTree, newTree, compat.Options{IncludePrivate: cfg.IncludePrivate})
	threshold, failing := cfg.FailThreshold()

	if globals.Quiet {
		if !failing {
			threshold = breakage.SeverityVeryLow
		}
		for b := range breakages {
			if report.Qualifies(b, threshold) {
				return fmt.Errorf("%s: %w", b.Object().CanonicalPath(), report.ErrBreakingChanges)
			}
		}
		return nil
	}

	bs := slices.Collect(breakages)
	opts := report.Options{Format: cfg.Format, Color: useColor(w, cfg.Color)}
	if err := report.Write(w, bs, opts); err != nil {
		return err
	}
	if failing {
		return report.Check(bs, threshold)
	}
	return nil
}

// useColor resolves the color mode against the output stream. NO_COLOR
// disables automatic coloring.
func useColor(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
