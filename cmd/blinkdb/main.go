package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"blinkdb/pkg/config"
	"blinkdb/pkg/logging"
)

// env is what every sub-command needs after the root flags are parsed.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func rootCommand() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	e := &env{}
	root := &cobra.Command{
		Use:           "blinkdb",
		Short:         "Exercise an in-memory B-link tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			e.cfg = cfg
			e.log = logging.New(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to blinkdb.yaml (default: configs/ then the working directory)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config")

	root.AddCommand(
		queryCommand(e),
		loadCommand(e),
		benchCommand(e),
		dotCommand(e),
	)
	return root
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}
