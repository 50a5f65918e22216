package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/apicompat/core/cli"
	"github.com/emenda-labs/apicompat/core/report"
)

const version = "0.1.0"

// Exit codes.
const (
	exitBreaking = 1
	exitError    = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	globals := &cli.GlobalOptions{}
	a := &app{globals: globals, stdout: os.Stdout}

	err := newRootCmd(a).ExecuteContext(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, report.ErrBreakingChanges) {
		if !globals.Quiet {
			fmt.Fprintf(os.Stderr, "apicompat: %v\n", err)
		}
		os.Exit(exitBreaking)
	}
	fmt.Fprintf(os.Stderr, "apicompat: %v\n", err)
	os.Exit(exitError)
}

func newRootCmd(a *app) *cobra.Command {
	root := cli.NewRootCmd(version, a.globals)
	diffCmd := cli.NewDiffCmd()
	diffCmd.AddCommand(cli.NewDiffGoCmd(a.runDiffGo))
	diffCmd.AddCommand(cli.NewDiffFilesCmd(a.runDiffFiles))
	root.AddCommand(diffCmd)
	root.AddCommand(cli.NewSnapshotCmd(a.runSnapshot))
	return root
}
