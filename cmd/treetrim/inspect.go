package main

import (
	"os"

	"github.com/aretw0/treetrim/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <node.json>",
	Short: "Inspect a node and trim it from the terminal",
	Long: `Loads a node payload exported by the tree visualizer, shows its statistics
and the reasons it could be trimmed for. Pick a reason (or pass --reason) to
stage the hyperparameter change, then confirm (or pass --confirm) to retrain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}

		svc, err := cli.NewServices(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		reason, _ := cmd.Flags().GetString("reason")
		confirm, _ := cmd.Flags().GetBool("confirm")
		format, _ := cmd.Flags().GetString("format")
		noInput, _ := cmd.Flags().GetBool("no-input")

		stdinTTY := term.IsTerminal(int(os.Stdin.Fd()))
		stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))

		return cli.Inspect(cmd.Context(), svc, cli.InspectOptions{
			Path:        args[0],
			Reason:      reason,
			Confirm:     confirm,
			Format:      format,
			Interactive: stdinTTY && !noInput,
			Pretty:      stdoutTTY && (format == "" || format == "markdown"),
			In:          cmd.InOrStdin(),
			Out:         cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("reason", "r", "", "Reason to stage (see 'treetrim reasons')")
	inspectCmd.Flags().Bool("confirm", false, "Retrain without asking")
	inspectCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, mermaid or json")
	inspectCmd.Flags().Bool("no-input", false, "Never prompt")
}
