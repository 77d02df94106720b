package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"muni-reconciler/internal/gateway"
	"muni-reconciler/internal/usecase"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Resolve a bill by barcode or billing-account id",
	Long: `Answer the cash network's pre-payment validation query: given a scanned
barcode or a billing-account id, report whether a bill exists and its amounts
and due dates.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("snapshot", "", "path to the billing snapshot JSON (required)")
	validateCmd.Flags().String("barcode", "", "42-digit barcode to resolve")
	validateCmd.Flags().String("account", "", "billing-account id to resolve")
	_ = validateCmd.MarkFlagRequired("snapshot")
}

func runValidate(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	code, _ := cmd.Flags().GetString("barcode")
	account, _ := cmd.Flags().GetString("account")
	if (code == "") == (account == "") {
		return fmt.Errorf("exactly one of --barcode or --account is required")
	}

	store := gateway.NewMemoryStore()
	if _, err := gateway.LoadSnapshot(store, snapshotPath); err != nil {
		return err
	}

	billing := usecase.NewBillingService(
		store.Vehicles(), store.Owners(), store.Obligations(), store.Invoices(), cfg.CompanyID)

	ctx := context.Background()
	var (
		result *usecase.ValidationResult
		err    error
	)
	if code != "" {
		result, err = billing.ValidateBarcode(ctx, code)
	} else {
		result, err = billing.ValidateAccount(ctx, account)
	}
	if err != nil {
		return err
	}
	return printJSON(result)
}
