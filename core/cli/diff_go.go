package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// DiffGoOptions holds the parsed flags for "diff go".
type DiffGoOptions struct {
	Module string
	From   string
	To     string
	Repo   string
}

// DiffGoRunFunc is the function signature for the diff go command handler.
type DiffGoRunFunc func(ctx context.Context, opts DiffGoOptions) error

// NewDiffGoCmd creates the "diff go" subcommand.
func NewDiffGoCmd(runFunc DiffGoRunFunc) *cobra.Command {
	var opts DiffGoOptions

	cmd := &cobra.Command{
		Use:   "go",
		Short: "Compare two published versions of a Go module",
		Long: "Download two versions of a Go module from the module proxy and report the\n" +
			"breaking changes in its exported API. Without --from, the old version is the\n" +
			"one required by --repo's go.mod, or else the release preceding --to.",
		Example: "  apicompat diff go --module github.com/acme/lib --to v1.5.0 --from v1.4.2\n" +
			"  apicompat diff go --module github.com/acme/lib --to v1.5.0 --repo .",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateDiffGoFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "Go module path to check (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "New version (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Old version")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository whose go.mod pins the old version")

	cmd.MarkFlagRequired("module")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagsMutuallyExclusive("from", "repo")

	return cmd
}

func validateDiffGoFlags(opts DiffGoOptions) error {
	if opts.Module == "" {
		return fmt.Errorf("--module is required")
	}
	if opts.To == "" {
		return fmt.Errorf("--to is required")
	}
	if !semver.IsValid(opts.To) {
		return fmt.Errorf("--to must be a semantic version starting with 'v' (e.g. v2.3.0), got %q", opts.To)
	}
	if opts.From != "" {
		if !semver.IsValid(opts.From) {
			return fmt.Errorf("--from must be a semantic version starting with 'v' (e.g. v2.2.0), got %q", opts.From)
		}
		if opts.From == opts.To {
			return fmt.Errorf("--from and --to are both %s", opts.To)
		}
	}
	if opts.Repo != "" {
		return requireDir("repo path", opts.Repo)
	}
	return nil
}
