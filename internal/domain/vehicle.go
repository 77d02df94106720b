package domain

import "github.com/google/uuid"

// Owner is a registered vehicle owner.
type Owner struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	TaxID string    `json:"tax_id"` // CUIT/CUIL, may contain separators
}

// Vehicle is a registered vehicle subject to the municipal tax.
type Vehicle struct {
	ID       uuid.UUID `json:"id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	Plate    string    `json:"plate"`
	Category string    `json:"category"` // billing category, e.g. "AUTO", "MOTO_>150"
	Active   bool      `json:"active"`
}
