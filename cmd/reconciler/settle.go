package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"muni-reconciler/internal/gateway"
	"muni-reconciler/internal/usecase"
)

var settleCmd = &cobra.Command{
	Use:   "settle <settlement-file>",
	Short: "Ingest a collection-network settlement file and apply payments",
	Long: `Read the network's daily transmission file line by line, match each
settled transaction against the invoices of a billing snapshot, and apply
payments idempotently. Re-running the same file never duplicates a payment.`,
	Example: `  reconciler settle PF150125.0001 --snapshot invoices.json`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSettle,
}

func init() {
	rootCmd.AddCommand(settleCmd)

	settleCmd.Flags().String("snapshot", "", "path to the billing snapshot JSON (required)")
	_ = settleCmd.MarkFlagRequired("snapshot")
}

func runSettle(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")

	store := gateway.NewMemoryStore()
	if _, err := gateway.LoadSnapshot(store, snapshotPath); err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open settlement file: %w", err)
	}
	defer file.Close()

	processor := usecase.NewSettlementProcessor(
		store.Invoices(), store.Obligations(), store.Payments(), store.Batches(), cfg.Provider)

	result, err := processor.Process(context.Background(), filepath.Base(args[0]), file)
	if err != nil {
		return err
	}
	return printJSON(result)
}
