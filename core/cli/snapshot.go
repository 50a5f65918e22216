package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/apicompat/drivers/snapshot"
)

// SnapshotOptions holds the parsed arguments for "snapshot".
type SnapshotOptions struct {
	Dir    string
	Output string
}

// SnapshotRunFunc is the function signature for the snapshot command handler.
type SnapshotRunFunc func(ctx context.Context, opts SnapshotOptions) error

// NewSnapshotCmd creates the "snapshot" command.
func NewSnapshotCmd(runFunc SnapshotRunFunc) *cobra.Command {
	var opts SnapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot DIR",
		Short: "Write the API of a Go module directory to a snapshot file",
		Long: "Scan a Go module directory and write its exported API to a snapshot that\n" +
			"\"diff files\" can compare later. The output name selects the format.",
		Example: "  apicompat snapshot . -o api-v1.4.2.json.zst",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Dir = args[0]
			return validateSnapshotFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Snapshot file to write (required)")
	cmd.MarkFlagRequired("output")

	return cmd
}

func validateSnapshotFlags(opts SnapshotOptions) error {
	if err := requireDir("module directory", opts.Dir); err != nil {
		return err
	}
	if opts.Output == "" {
		return fmt.Errorf("--output is required")
	}
	if _, _, err := snapshot.DetectFormat(opts.Output); err != nil {
		return fmt.Errorf("--output: %w", err)
	}
	return nil
}
