package cli

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

// NewDiffCmd creates the "diff" parent command.
func NewDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Report breaking changes between two API versions",
		Long:  "Compare an old and a new version of a package API and report every breaking change.",
	}

	return cmd
}

func statPath(what, path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s does not exist: %s", what, path)
		}
		return nil, fmt.Errorf("cannot access %s: %w", what, err)
	}
	return info, nil
}
