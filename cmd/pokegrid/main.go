// Command pokegrid serves the aggregated card endpoint and browses it as an
// infinitely scrolling terminal grid.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokegrid/internal/config"
	"github.com/Sternrassler/pokegrid/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by all subcommands.
type app struct {
	configPath string
	cfg        *config.Config
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pokegrid",
		Short:         "pokegrid serves and browses an infinitely scrolling grid of Pokémon cards.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.Name() == "browse")
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./pokegrid.yaml)")

	root.AddCommand(
		newServeCmd(a),
		newBrowseCmd(a),
		newExportCmd(a),
	)
	return root
}

// load reads configuration and sets up the global logger. Terminal UIs own
// stdout and stderr, so quiet discards logs unless a log file is configured.
func (a *app) load(quiet bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	logCfg := cfg.LoggingConfig()
	if quiet && logCfg.File == "" {
		logCfg.Output = io.Discard
	}
	_, closer, err := logging.SetupFile(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logCloser = closer

	log.Debug().
		Str("config", a.configPath).
		Str("cache_backend", string(cfg.Cache.Backend)).
		Msg("Configuration loaded")
	return nil
}
