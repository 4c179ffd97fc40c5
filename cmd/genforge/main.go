// Command genforge is a thin CLI harness over the orchestration SDK: a
// cobra root command with persistent logging/config flags, a config.Config
// loaded once in PersistentPreRunE, and subcommands that each wire only the
// packages they need.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"genforge/internal/config"
	"genforge/internal/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "genforge",
		Short: "Orchestration CLI for multi-stage generative media pipelines",
	}

	f := rootCmd.PersistentFlags()
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("log-file", "", "path to write logs to (defaults to stdout)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logLevel, _ := cmd.Flags().GetString("log-level")
		if !cmd.Flags().Changed("log-level") {
			logLevel = cfg.LogLevel
		}
		logFile, _ := cmd.Flags().GetString("log-file")
		logging.Init(logFile, logLevel)

		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(newHealthCmd(), newGenerateCmd(), newAnalyzeCmd(), newMetricsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("genforge: command failed")
		os.Exit(1)
	}
}
