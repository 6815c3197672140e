package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/treetrim/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes trimming sessions as MCP tools, so AI agents can inspect nodes,
stage trims and trigger retrains.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("listen")

		// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
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

		return cli.ServeMCP(ctx, svc, transport, addr)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("listen", ":8081", "Address to listen on (only for SSE)")
}
