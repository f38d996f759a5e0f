// Package cli implements the emvex command line interface.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/emvex/internal/config"
	"github.com/kailas-cloud/emvex/internal/logger"
)

// app carries the state shared by every command: flags, the loaded
// configuration and the logger. PersistentPreRunE fills it in before any
// subcommand runs.
type app struct {
	env     string
	verbose bool

	cfg config.Config
	log *zap.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "emvex",
		Short: "Embedding and vector retrieval engine",
		Long: `emvex embeds texts through a configured provider, stores the vectors
in a pluggable backend and answers similarity queries over them.

Configuration is read from config/<env>.yaml. Without a config file the
in-memory store is used and embedding commands require a provider to be
configured.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.env, "env", config.GetEnv(), "environment name, selects config/<env>.yaml")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newEmbedCommand(a),
		newIndexCommand(a),
		newQueryCommand(a),
		newClusterCommand(a),
		newModelsCommand(a),
		newHealthCommand(a),
		newUsageCommand(a),
		newVersionCommand(),
	)

	return cmd
}

// init loads the configuration and builds the logger. A missing config file
// is not an error: the defaults give a working in-memory setup.
func (a *app) init() error {
	cfg, err := config.Load(a.env)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = config.Config{}
		cfg.ApplyDefaults()
	}

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}

	log, err := logger.New(a.env, level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// Execute runs the root command and reports failure through the exit code.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
