package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/treetrim/internal/config"
	"github.com/aretw0/treetrim/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "treetrim",
	Short: "Treetrim turns node-level trims of a decision tree into retrains",
	Long: `Treetrim lets you inspect the nodes of a trained decision tree, pick why a
node should not exist, and retrain the tree with the hyperparameter change
that removes it.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the treetrim YAML config")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// loadConfig reads --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// newLogger writes to Stderr so Stdout stays free for output and JSON-RPC.
func newLogger(cfg config.Log) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(os.Stderr, cfg.Format, level)
}
