package model

import (
	"encoding/json"
	"time"
)

// Individual statuses of a unique asset.
const (
	StatusInUse    = "in_use"
	StatusNotInUse = "not_in_use"
	StatusRetired  = "retired"
)

// ValidIndividualStatus reports whether s is a known unique-asset status.
func ValidIndividualStatus(s string) bool {
	switch s {
	case StatusInUse, StatusNotInUse, StatusRetired:
		return true
	}
	return false
}

// Variant holds the fields that only one kind of asset carries.
// It is implemented by *Unique and *Bulk only.
type Variant interface {
	isVariant()
}

// Unique is a serialized, individually tracked item.
type Unique struct {
	SerialNumber     string `json:"serial_number"`
	IndividualStatus string `json:"individual_status"`
}

// Bulk is a fungible, quantity-tracked pool of identical items.
type Bulk struct {
	CurrentStockLevel int        `json:"current_stock_level"`
	MinimumThreshold  int        `json:"minimum_threshold"`
	LastRestocked     *time.Time `json:"last_restocked,omitempty"`
}

func (*Unique) isVariant() {}
func (*Bulk) isVariant()   {}

// IsLowStock reports whether the pool is at or under its minimum threshold.
func (b *Bulk) IsLowStock() bool {
	return b.CurrentStockLevel <= b.MinimumThreshold
}

// Asset is a physical item or fungible pool. The shared envelope carries
// identity, location and keeper; Variant carries the kind-specific fields.
type Asset struct {
	ID            int64
	Name          string
	ModelNumber   string
	LocationID    int64
	KeeperPayroll string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Variant       Variant
}

// IsBulk reports whether the asset is a bulk pool.
func (a *Asset) IsBulk() bool {
	_, ok := a.Variant.(*Bulk)
	return ok
}

// Unique returns the unique-variant fields, if the asset is unique.
func (a *Asset) Unique() (*Unique, bool) {
	u, ok := a.Variant.(*Unique)
	return u, ok
}

// Bulk returns the bulk-variant fields, if the asset is bulk.
func (a *Asset) Bulk() (*Bulk, bool) {
	b, ok := a.Variant.(*Bulk)
	return b, ok
}

// MarshalJSON flattens the envelope and nests the variant under its kind.
func (a *Asset) MarshalJSON() ([]byte, error) {
	out := struct {
		ID            int64     `json:"id"`
		Name          string    `json:"name"`
		ModelNumber   string    `json:"model_number,omitempty"`
		IsBulk        bool      `json:"is_bulk"`
		LocationID    int64     `json:"location_id"`
		KeeperPayroll string    `json:"keeper_payroll_number,omitempty"`
		Notes         string    `json:"notes,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
		Unique        *Unique   `json:"unique,omitempty"`
		Bulk          *Bulk     `json:"bulk,omitempty"`
		IsLowStock    *bool     `json:"is_low_stock,omitempty"`
	}{
		ID:            a.ID,
		Name:          a.Name,
		ModelNumber:   a.ModelNumber,
		IsBulk:        a.IsBulk(),
		LocationID:    a.LocationID,
		KeeperPayroll: a.KeeperPayroll,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if u, ok := a.Unique(); ok {
		out.Unique = u
	}
	if b, ok := a.Bulk(); ok {
		out.Bulk = b
		low := b.IsLowStock()
		out.IsLowStock = &low
	}
	return json.Marshal(out)
}
