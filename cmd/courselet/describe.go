package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/courselet/internal/cli"
	"github.com/aretw0/courselet/internal/presentation/tui"
)

var describeCmd = &cobra.Command{
	Use:   "describe <spec>",
	Short: "Describe a specification",
	Long:  `Prints the nodes, routes and events of a specification. Output is styled on a terminal and plain markdown otherwise.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reg, err := cli.LoadSpecs(cfg.Engine.Specs, newLogger(cfg))
		if err != nil {
			return err
		}
		spec, err := reg.Specification(args[0])
		if err != nil {
			return err
		}

		fd := int(os.Stdout.Fd())
		styled := term.IsTerminal(fd)
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			styled = false
		}
		width := 0
		if styled {
			if w, _, err := term.GetSize(fd); err == nil {
				width = w
			}
		}
		render, err := tui.NewRenderer(styled, width)
		if err != nil {
			return err
		}
		out, err := render(tui.Describe(spec))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("plain", false, "Print raw markdown even on a terminal")
}
