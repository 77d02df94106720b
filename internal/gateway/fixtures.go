package gateway

import (
	"encoding/json"
	"fmt"
	"os"

	"muni-reconciler/internal/domain"
)

// Registry is the JSON document describing owners and their vehicles, the
// input of obligation generation.
type Registry struct {
	Owners   []domain.Owner   `json:"owners"`
	Vehicles []domain.Vehicle `json:"vehicles"`
}

// BillingSnapshot is the JSON document the billing run writes and the
// settlement run reads back: the issued invoices with their obligations.
type BillingSnapshot struct {
	Invoices    []domain.Invoice       `json:"invoices"`
	Obligations []domain.TaxObligation `json:"obligations"`
}

// LoadRegistry reads a registry document and loads it into the store.
func LoadRegistry(store *MemoryStore, path string) (*Registry, error) {
	var reg Registry
	if err := readJSON(path, &reg); err != nil {
		return nil, err
	}
	for _, o := range reg.Owners {
		store.AddOwner(o)
	}
	for _, v := range reg.Vehicles {
		store.AddVehicle(v)
	}
	return &reg, nil
}

// LoadSnapshot reads a billing snapshot and loads it into the store.
func LoadSnapshot(store *MemoryStore, path string) (*BillingSnapshot, error) {
	var snap BillingSnapshot
	if err := readJSON(path, &snap); err != nil {
		return nil, err
	}
	obligations := make(map[string]domain.TaxObligation, len(snap.Obligations))
	for _, o := range snap.Obligations {
		obligations[o.ID.String()] = o
	}
	for _, inv := range snap.Invoices {
		obl, ok := obligations[inv.ObligationID.String()]
		if !ok {
			return nil, fmt.Errorf("snapshot %s: invoice %s references missing obligation %s", path, inv.ID, inv.ObligationID)
		}
		if err := store.AddInvoice(inv, obl); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", path, err)
		}
	}
	return &snap, nil
}

// WriteSnapshot writes a billing snapshot document.
func WriteSnapshot(snap BillingSnapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
