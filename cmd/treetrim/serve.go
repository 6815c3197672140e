package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/treetrim/internal/cli"
	"github.com/aretw0/treetrim/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the trimming workflow as an HTTP API for the tree View.
Sessions, hyperparameters and the training backend come from the config file.
The OpenAPI document is served on /openapi.yaml and metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			cfg.Listen = addr
		}
		logger, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := cli.NewServices(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout)
		}
		return cli.Serve(ctx, svc, cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
}
