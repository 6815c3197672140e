package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/treetrim/internal/cli"
	"github.com/spf13/cobra"
)

var reasonsCmd = &cobra.Command{
	Use:   "reasons",
	Short: "List the trim reasons",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := cli.LoadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}

		reasons := cat.Reasons()
		if cmd.Flags().Changed("leaf") {
			leaf, _ := cmd.Flags().GetBool("leaf")
			reasons = cat.ReasonsFor(leaf)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(reasons)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tAPPLIES TO\tTEXT")
		for _, r := range reasons {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.AppliesTo, r.DisplayText)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(reasonsCmd)
	reasonsCmd.Flags().Bool("leaf", false, "Only reasons for leaf (true) or internal (false) nodes")
	reasonsCmd.Flags().Bool("json", false, "Print JSON")
}
