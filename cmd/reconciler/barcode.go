package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"muni-reconciler/internal/barcode"
)

var barcodeCmd = &cobra.Command{
	Use:   "barcode",
	Short: "Build the 42-digit collection-network barcode for one bill",
	Example: `  reconciler barcode --amount 1000.00 --due1 2025-01-15 \
      --account 12345678901234 --surcharge 38.00 --due2 2025-01-25`,
	RunE: runBarcode,
}

func init() {
	rootCmd.AddCommand(barcodeCmd)

	barcodeCmd.Flags().String("amount", "", "first-due amount, e.g. 1000.00 (required)")
	barcodeCmd.Flags().String("due1", "", "first due date, YYYY-MM-DD (required)")
	barcodeCmd.Flags().String("account", "", "billing-account id (required)")
	barcodeCmd.Flags().String("surcharge", "0.00", "second-due surcharge")
	barcodeCmd.Flags().String("due2", "", "second due date, YYYY-MM-DD (default: same as due1)")
	_ = barcodeCmd.MarkFlagRequired("amount")
	_ = barcodeCmd.MarkFlagRequired("due1")
	_ = barcodeCmd.MarkFlagRequired("account")
}

func runBarcode(cmd *cobra.Command, args []string) error {
	amountStr, _ := cmd.Flags().GetString("amount")
	due1Str, _ := cmd.Flags().GetString("due1")
	account, _ := cmd.Flags().GetString("account")
	surchargeStr, _ := cmd.Flags().GetString("surcharge")
	due2Str, _ := cmd.Flags().GetString("due2")

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	surcharge, err := decimal.NewFromString(surchargeStr)
	if err != nil {
		return fmt.Errorf("invalid surcharge %q: %w", surchargeStr, err)
	}
	due1, err := time.Parse(time.DateOnly, due1Str)
	if err != nil {
		return fmt.Errorf("invalid due1 %q: %w", due1Str, err)
	}
	due2 := due1
	if due2Str != "" {
		if due2, err = time.Parse(time.DateOnly, due2Str); err != nil {
			return fmt.Errorf("invalid due2 %q: %w", due2Str, err)
		}
	}

	code, err := barcode.Build(cfg.CompanyID, amount, due1, account, surcharge, due2)
	if err != nil {
		return err
	}
	fmt.Println(code)
	return nil
}
