package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskmesh/deskmesh/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "deskmesh",
	Short: "Hierarchical task delegation over capability workers",
	Long: `Deskmesh routes natural-language requests through a hierarchy of
workers. Each worker either answers directly, invokes one of its bound
capabilities, or delegates a sub-request to a team member. Conversation
history is kept per worker and per session inside a bounded window, and
capability invocations are retried within a fixed attempt budget.

Without --config the built-in workplace team is used (messaging, meetings,
mail, documents, spreadsheets, calendar).`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML worker-hierarchy config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(handleCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() logging.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}

	return logging.New(func(o *logging.Options) {
		o.Level = level
		o.Format = logFormat
		o.Output = os.Stderr
	})
}
