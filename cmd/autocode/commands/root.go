// Package commands implements the autocode CLI.
package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/config"
	"github.com/sghaida/autocode/logger"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbosity  int
	jsonLog    bool

	cfg *config.Config
}

// NewRootCmd builds the autocode command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "autocode",
		Short: "Generate factories, proxies and trait mixins on demand",
		Long: `autocode - on-demand adapter generation driven by type names.

A missing type whose name follows a convention is generated into the
generation directory and cached there until the version changes:

  <Base>Factory       builds <Base> through the di container
  <Base>Proxy         lazily builds one <Base> and forwards to it
  <Base>SharedProxy   forwards to a named shared <Base>
  Needs<Base>Trait    embeddable field and setter for <Base>

Examples:
  autocode resolve app.LoggerProxy      # Generate one type
  autocode gen app                      # Generate everything package app is missing
  autocode scan ./gen ./cmd ./internal  # Generate constructor parameter types
  autocode watch                        # Keep generated code in sync
  autocode clean                        # Remove stale generated files`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Cleanup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to "+config.FileName+" (default: search upwards from the working directory)")
	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	root.PersistentFlags().BoolVar(&a.jsonLog, "json-log", false, "Log as JSON")

	root.AddCommand(
		newResolveCmd(a),
		newGenCmd(a),
		newScanCmd(a),
		newWatchCmd(a),
		newCleanCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	// Commands that do not touch the generation directory skip config loading.
	if cmd.Annotations["skip-config"] == "true" {
		return logger.Initialize(a.jsonLog, a.verbosity)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	a.cfg = cfg

	if err := logger.Initialize(a.jsonLog || cfg.Log.JSON, a.verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	if cfg.File != "" {
		logger.Debugw("Loaded configuration", "file", cfg.File)
	}
	return nil
}

var skipConfig = map[string]string{"skip-config": "true"}
