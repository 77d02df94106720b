package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"muni-reconciler/internal/config"
	"muni-reconciler/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Municipal vehicle-tax billing and payment reconciliation",
	Long: `reconciler bills the municipal vehicle tax and reconciles the daily
settlement file of the cash-collection network.

A typical run generates the period's obligations and invoices from a vehicle
registry (bill), then ingests the network's transmission file against those
invoices (settle).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		return logger.Setup(cfg.LoggerConfig())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printJSON renders a command result on stdout.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
