package model

import "time"

// Assignment statuses.
const (
	AssignmentActive            = "active"
	AssignmentPartiallyReturned = "partially_returned"
	AssignmentReturned          = "returned"
)

// Item conditions recorded at issue and return.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
	ConditionDamaged   = "damaged"
)

// ValidCondition reports whether c is a known item condition.
func ValidCondition(c string) bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// Assignment is one issuance of an asset (or a quantity of a bulk pool) to a
// person, open until fully returned or force-closed.
type Assignment struct {
	ID                int64      `json:"id"`
	AssetID           int64      `json:"asset_id"`
	AssignedTo        string     `json:"assigned_to"`
	AssignedBy        string     `json:"assigned_by"`
	DateIssued        time.Time  `json:"date_issued"`
	ConditionIssued   string     `json:"condition_issued"`
	QuantityIssued    int        `json:"quantity_issued"`
	QuantityRemaining int        `json:"quantity_remaining"`
	Status            string     `json:"status"`
	DateReturned      *time.Time `json:"date_returned,omitempty"`
	ConditionReturned string     `json:"condition_returned,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	DeletedBy         string     `json:"deleted_by,omitempty"`
	DeleteReason      string     `json:"delete_reason,omitempty"`

	// Joined fields (not always populated).
	AssetName      string `json:"asset_name,omitempty"`
	AssetIsBulk    bool   `json:"asset_is_bulk"`
	SerialNumber   string `json:"serial_number,omitempty"`
	LocationID     int64  `json:"location_id,omitempty"`
	RegionName     string `json:"region_name,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
	AssignedToName string `json:"assigned_to_name,omitempty"`
}

// Open reports whether the assignment still holds quantity.
func (a *Assignment) Open() bool {
	return a.DeletedAt == nil && a.Status != AssignmentReturned
}
