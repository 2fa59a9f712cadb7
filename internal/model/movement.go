package model

import "time"

// Movement types.
const (
	MovementInitial  = "initial"
	MovementTransfer = "transfer"
	MovementIssue    = "issue"
	MovementReturn   = "return"
)

// Movement is an append-only record of an asset's location change.
type Movement struct {
	ID             int64     `json:"id"`
	AssetID        int64     `json:"asset_id"`
	FromLocationID *int64    `json:"from_location_id,omitempty"`
	ToLocationID   int64     `json:"to_location_id"`
	MovedBy        string    `json:"moved_by"`
	MovementType   string    `json:"movement_type"`
	Quantity       int       `json:"quantity"`
	MovedAt        time.Time `json:"moved_at"`
	Notes          string    `json:"notes,omitempty"`
}

// RestockLog is an append-only record of a bulk stock replenishment.
type RestockLog struct {
	ID                int64     `json:"id"`
	AssetID           int64     `json:"asset_id"`
	QuantityRestocked int       `json:"quantity_restocked"`
	RestockedAt       time.Time `json:"restocked_at"`
	RestockedBy       string    `json:"restocked_by"`
	Notes             string    `json:"notes,omitempty"`
}

// StockReport aggregates a bulk asset's stock state and recent activity.
type StockReport struct {
	AssetID              int64        `json:"asset_id"`
	CurrentStockLevel    int          `json:"current_stock_level"`
	MinimumThreshold     int          `json:"minimum_threshold"`
	IsLowStock           bool         `json:"is_low_stock"`
	TotalIssuedToDate    int          `json:"total_issued_to_date"`
	TotalRestockedToDate int          `json:"total_restocked_to_date"`
	RecentMovements      []Movement   `json:"recent_movements"`
	RecentRestocks       []RestockLog `json:"recent_restocks"`
}
