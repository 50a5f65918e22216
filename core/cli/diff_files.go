package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/apicompat/drivers/snapshot"
)

// DiffFilesOptions holds the arguments of "diff files".
type DiffFilesOptions struct {
	Old string
	New string
}

// DiffFilesRunFunc is the function signature for the diff files command handler.
type DiffFilesRunFunc func(ctx context.Context, opts DiffFilesOptions) error

// NewDiffFilesCmd creates the "diff files" subcommand.
func NewDiffFilesCmd(runFunc DiffFilesRunFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files OLD NEW",
		Short: "Compare two local API versions",
		Long: "Compare two local versions of an API. Each side is either a snapshot file\n" +
			"(.json, .yaml or .yml, optionally .zst or .gz compressed) or a Go module directory.",
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateDiffFilesArgs(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), DiffFilesOptions{Old: args[0], New: args[1]})
		},
	}

	return cmd
}

// validateDiffFilesArgs checks that each side is a directory or a file with a
// snapshot extension.
func validateDiffFilesArgs(args []string) error {
	for _, p := range args {
		info, err := statPath("input", p)
		if err != nil {
			return err
		}
		if !info.IsDir() && !snapshot.IsSnapshotPath(p) {
			return fmt.Errorf("input is neither a module directory nor a snapshot (.json, .yaml, .yml, optionally .zst or .gz): %s", p)
		}
	}
	return nil
}
