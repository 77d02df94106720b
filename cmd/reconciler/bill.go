package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"muni-reconciler/internal/gateway"
	"muni-reconciler/internal/usecase"
)

var billCmd = &cobra.Command{
	Use:   "bill",
	Short: "Generate a period's obligations and issue their invoices",
	Long: `Generate one tax obligation per active vehicle in the registry for the
given YYYYMM period, then issue an invoice with its collection-network
barcode for each. The resulting snapshot can be fed to "settle".`,
	Example: `  reconciler bill --period 202501 --registry registry.json --out invoices.json`,
	RunE:    runBill,
}

func init() {
	rootCmd.AddCommand(billCmd)

	billCmd.Flags().String("period", "", "billing period, YYYYMM (required)")
	billCmd.Flags().String("registry", "", "path to the owners/vehicles registry JSON (required)")
	billCmd.Flags().String("out", "invoices.json", "path of the billing snapshot to write")
	billCmd.Flags().Bool("overwrite", false, "recompute existing unpaid obligations")
	_ = billCmd.MarkFlagRequired("period")
	_ = billCmd.MarkFlagRequired("registry")
}

func runBill(cmd *cobra.Command, args []string) error {
	period, _ := cmd.Flags().GetString("period")
	registryPath, _ := cmd.Flags().GetString("registry")
	outPath, _ := cmd.Flags().GetString("out")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	ctx := context.Background()
	store := gateway.NewMemoryStore()
	if _, err := gateway.LoadRegistry(store, registryPath); err != nil {
		return err
	}

	billing := usecase.NewBillingService(
		store.Vehicles(), store.Owners(), store.Obligations(), store.Invoices(), cfg.CompanyID)

	summary, err := billing.GenerateObligations(ctx, period, overwrite)
	if err != nil {
		return err
	}

	vehicles, err := store.Vehicles().ListActive(ctx)
	if err != nil {
		return err
	}

	snap := gateway.BillingSnapshot{}
	for _, v := range vehicles {
		obl, err := store.Obligations().FindByVehicleAndPeriod(ctx, v.ID, period)
		if err != nil {
			return err
		}
		if obl == nil {
			continue
		}
		inv, err := billing.IssueInvoice(ctx, obl.ID)
		if err != nil {
			return fmt.Errorf("issue invoice for vehicle %s: %w", v.Plate, err)
		}
		issued, err := store.Obligations().FindByID(ctx, obl.ID)
		if err != nil {
			return err
		}
		snap.Invoices = append(snap.Invoices, *inv)
		snap.Obligations = append(snap.Obligations, *issued)
	}

	if err := gateway.WriteSnapshot(snap, outPath); err != nil {
		return err
	}

	return printJSON(struct {
		*usecase.GenerationSummary
		Invoices int    `json:"invoices"`
		Snapshot string `json:"snapshot"`
	}{summary, len(snap.Invoices), outPath})
}
