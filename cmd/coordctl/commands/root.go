// Package commands implements the coordctl command tree.
package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"coordinator/internal/logging"
	"coordinator/pkg/config"
)

const Version = "0.1.0"

var (
	configPath string
	logLevel   string
	logPretty  bool
)

var rootCmd = &cobra.Command{
	Use:   "coordctl",
	Short: "Operator tooling for the pipeline coordination components",
	Long: `coordctl drives the delegation loop guard and the context sequencer
outside a live pipeline: replay recorded event traces to audit guard
decisions, and inspect the document cycle an agent role would receive.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree, reporting errors on stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logger := rootLogger()
		logger.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "coordinator.yaml", "Path to the coordinator config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "Human-readable console log format")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(docsCmd)
}

func rootLogger() zerolog.Logger {
	return logging.New(os.Stderr, logLevel, logPretty)
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
