package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
)

type restockRow struct {
	ID                int64          `db:"id"`
	AssetID           int64          `db:"asset_id"`
	QuantityRestocked int            `db:"quantity_restocked"`
	RestockedAt       time.Time      `db:"restocked_at"`
	RestockedBy       string         `db:"restocked_by"`
	Notes             sql.NullString `db:"notes"`
}

// InsertRestock appends a restock log and returns its ID.
func InsertRestock(ctx context.Context, q sqlx.ExtContext, r *model.RestockLog) (int64, error) {
	var id int64
	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO restock_logs (asset_id, quantity_restocked, restocked_at, restocked_by, notes)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`),
		r.AssetID, r.QuantityRestocked, r.RestockedAt, r.RestockedBy, nullString(r.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("recording restock: %w", err)
	}
	return id, nil
}

// ListRestocks returns an asset's restock logs, newest first. A limit of zero
// or less returns all of them.
func ListRestocks(ctx context.Context, q sqlx.ExtContext, assetID int64, limit int) ([]model.RestockLog, error) {
	query := `SELECT id, asset_id, quantity_restocked, restocked_at, restocked_by, notes
	          FROM restock_logs
	          WHERE asset_id = ?
	          ORDER BY restocked_at DESC, id DESC`
	args := []any{assetID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []restockRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing restocks: %w", err)
	}
	logs := make([]model.RestockLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, model.RestockLog{
			ID:                r.ID,
			AssetID:           r.AssetID,
			QuantityRestocked: r.QuantityRestocked,
			RestockedAt:       r.RestockedAt,
			RestockedBy:       r.RestockedBy,
			Notes:             r.Notes.String,
		})
	}
	return logs, nil
}

// SumRestocked returns the total quantity ever restocked into an asset.
func SumRestocked(ctx context.Context, q sqlx.ExtContext, assetID int64) (int, error) {
	var total int
	err := sqlx.GetContext(ctx, q, &total, q.Rebind(
		`SELECT COALESCE(SUM(quantity_restocked), 0) FROM restock_logs WHERE asset_id = ?`), assetID)
	if err != nil {
		return 0, fmt.Errorf("summing restocks: %w", err)
	}
	return total, nil
}
