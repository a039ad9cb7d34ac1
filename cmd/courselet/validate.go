package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/aretw0/courselet/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [glob...]",
	Short: "Check that every specification loads",
	Long:  `Loads the built-in flows plus the YAML specifications matched by the globs (or engine.specs) and reports dangling edges, duplicates and unknown behaviors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		patterns := cfg.Engine.Specs
		if len(args) > 0 {
			patterns = args
		}
		logger := newLogger(cfg)
		out := cmd.OutOrStdout()

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			if len(patterns) == 0 {
				return errors.New("--watch needs at least one glob")
			}
			sig := cli.NewSignalContext(context.Background())
			defer sig.Cancel()
			return cli.WatchSpecs(sig, out, patterns, logger)
		}
		return cli.Validate(out, patterns, logger)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("watch", "w", false, "Revalidate whenever a matched file changes")
}
