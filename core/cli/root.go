// Package cli defines the apicompat command tree. Command handlers are
// injected by the wiring layer (cmd/apicompat/main.go).
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/apicompat/core/config"
	"github.com/emenda-labs/apicompat/pkg/logging"
)

// GlobalOptions holds the flags shared by every command and the
// configuration resolved from them.
type GlobalOptions struct {
	ConfigFile string
	NoColor    bool
	Quiet      bool

	// Config is populated before any command handler runs.
	Config *config.Config
}

// NewRootCmd creates the top-level apicompat command.
func NewRootCmd(version string, globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apicompat",
		Short: "Detect breaking API changes between two versions of a package",
		Long: "apicompat compares the public API of two versions of a package and reports\n" +
			"every change that can break downstream code, ranked by severity.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(globals.ConfigFile, cmd.Flags())
			if err != nil {
				return err
			}
			if globals.NoColor {
				cfg.Color = config.ColorNever
			}
			globals.Config = cfg
			logging.Init(cmd.ErrOrStderr(), cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
			return nil
		},
	}

	cmd.Version = version

	defaults := config.Default()
	flags := cmd.PersistentFlags()
	flags.StringVar(&globals.ConfigFile, "config", "", "Config file (default: .apicompat.yaml in the working directory or $HOME)")
	flags.Bool("include-private", defaults.IncludePrivate, "Also compare members with private names")
	flags.String("format", defaults.Format, "Output format: text, json or yaml")
	flags.String("fail-on", defaults.FailOn, "Exit non-zero when a breakage reaches this severity (very-low..very-high)")
	flags.String("color", defaults.Color, "Color text output: auto, always or never")
	flags.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	flags.String("log-level", defaults.Log.Level, "Log level: debug, info, warn or error")
	flags.String("log-format", defaults.Log.Format, "Log format: text or json")
	flags.String("proxy", defaults.Proxy.URL, "Go module proxy list (default: $GOPROXY)")
	flags.BoolVarP(&globals.Quiet, "quiet", "q", false, "Print nothing; stop at the first breakage reaching --fail-on")

	return cmd
}

// requireDir checks that path exists and is a directory.
func requireDir(what, path string) error {
	info, err := statPath(what, path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", what, path)
	}
	return nil
}
