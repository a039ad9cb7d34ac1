package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/courselet/internal/cli"
	"github.com/aretw0/courselet/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <spec>",
	Short: "Export a specification as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart (graph TD) of the named specification. With --session, the nodes the session's stack sits on are highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		key, _ := cmd.Flags().GetString("session")
		if key == "" {
			reg, err := cli.LoadSpecs(cfg.Engine.Specs, logger)
			if err != nil {
				return err
			}
			spec, err := reg.Specification(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(spec, nil))
			return nil
		}

		ctx := context.Background()
		app, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		spec, err := app.Registry.Specification(args[0])
		if err != nil {
			return err
		}
		snap, err := app.Engine.Inspect(ctx, key)
		if err != nil {
			return err
		}
		overlay := &graph.Overlay{}
		for i, f := range snap.Frames {
			if f.Spec != spec.Name {
				continue
			}
			overlay.VisitedNodes = append(overlay.VisitedNodes, f.Node)
			if i == len(snap.Frames)-1 {
				overlay.CurrentNode = f.Node
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(spec, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the stack of this session key")
}
