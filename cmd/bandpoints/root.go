package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mmynk/bandpoints/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:           "bandpoints",
	Short:         "Marching band points leaderboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envErr := godotenv.Overload()

		level := logging.LevelFromEnv()
		if logLevel != "" {
			var ok bool
			if level, ok = logging.ParseLevel(logLevel); !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}
		}
		logging.SetupWithLevel(level)

		if envErr != nil {
			slog.Debug("No .env file loaded", "error", envErr)
		}
		return nil
	},
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
