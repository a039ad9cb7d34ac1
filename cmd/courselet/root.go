package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/courselet/internal/config"
	"github.com/aretw0/courselet/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "courselet",
	Short:         "Courselet is a navigation engine for course flows",
	Long:          `Courselet routes students through browse, slideshow, test and live-session flows, persisting a stack of flows per session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSlice("specs", nil, "Globs of extra YAML specifications (overrides engine.specs)")
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if cmd.Flags().Changed("specs") {
		cfg.Engine.Specs, _ = cmd.Flags().GetStringSlice("specs")
	}
	return cfg, cfg.Validate()
}

// newLogger writes to stderr so stdout stays clean for command output.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewWriter(os.Stderr, cfg.LogLevel(), logging.Format(cfg.Log.Format))
}
