package main

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/courselet/internal/cli"
	"github.com/aretw0/courselet/internal/presentation/tui"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/runner"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Navigate interactively from the terminal",
	Long: `Starts a prompt bound to one session. Type an event name (with key=value
extras) to dispatch it, or :help for the colon commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		sig := cli.NewSignalContext(context.Background())
		defer sig.Cancel()

		app, err := cli.Build(sig, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		if demo, _ := cmd.Flags().GetBool("demo"); demo {
			if err := cli.SeedDemo(sig, app.Catalog); err != nil {
				return err
			}
		}

		key, _ := cmd.Flags().GetString("session")
		if key == "" {
			key = uuid.NewString()
		}
		user, _ := cmd.Flags().GetString("user")
		if user == "" {
			user = key
		}

		styled := term.IsTerminal(int(os.Stdout.Fd()))
		render, err := tui.NewRenderer(styled, 0)
		if err != nil {
			return err
		}
		if styled {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		logger.Info("session opened", "session", key, "user", user)

		r := runner.New(app.Engine, domain.Request{SessionKey: key, UserID: user},
			runner.WithInput(cmd.InOrStdin()),
			runner.WithOutput(cmd.OutOrStdout()),
			runner.WithRenderer(runner.ContentRenderer(render)),
			runner.WithLogger(logger),
		)
		err = r.Run(sig)
		if errors.Is(err, context.Canceled) && sig.Signal() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("session", "", "Session key to resume (new one when empty)")
	playCmd.Flags().String("user", "", "User id (defaults to the session key)")
	playCmd.Flags().Bool("demo", false, "Seed the in-memory catalog with the demo unit")
}
