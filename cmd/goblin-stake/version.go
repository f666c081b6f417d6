package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goblinstake/goblin-stake/utils"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "goblin-stake %v\n", utils.GetVersion())
		if utils.Buildtime != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "built %v\n", utils.Buildtime)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
