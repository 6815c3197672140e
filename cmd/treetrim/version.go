package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/treetrim"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of treetrim",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "treetrim version %s\n", strings.TrimSpace(treetrim.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
