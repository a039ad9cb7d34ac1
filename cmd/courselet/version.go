package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/courselet"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of courselet",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "courselet version %s\n", strings.TrimSpace(courselet.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
