package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
)

type movementRow struct {
	ID             int64          `db:"id"`
	AssetID        int64          `db:"asset_id"`
	FromLocationID sql.NullInt64  `db:"from_location_id"`
	ToLocationID   int64          `db:"to_location_id"`
	MovedBy        string         `db:"moved_by"`
	MovementType   string         `db:"movement_type"`
	Quantity       int            `db:"quantity"`
	MovedAt        time.Time      `db:"moved_at"`
	Notes          sql.NullString `db:"notes"`
}

func (r *movementRow) toModel() model.Movement {
	m := model.Movement{
		ID:           r.ID,
		AssetID:      r.AssetID,
		ToLocationID: r.ToLocationID,
		MovedBy:      r.MovedBy,
		MovementType: r.MovementType,
		Quantity:     r.Quantity,
		MovedAt:      r.MovedAt,
		Notes:        r.Notes.String,
	}
	if r.FromLocationID.Valid {
		from := r.FromLocationID.Int64
		m.FromLocationID = &from
	}
	return m
}

// InsertMovement appends a movement record and returns its ID.
func InsertMovement(ctx context.Context, q sqlx.ExtContext, m *model.Movement) (int64, error) {
	var id int64
	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO movements (asset_id, from_location_id, to_location_id, moved_by,
		                        movement_type, quantity, moved_at, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		m.AssetID, nullInt64(m.FromLocationID), m.ToLocationID, m.MovedBy,
		m.MovementType, m.Quantity, m.MovedAt, nullString(m.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("recording movement: %w", err)
	}
	return id, nil
}

// ListMovements returns an asset's movements, newest first. A limit of zero
// or less returns all of them.
func ListMovements(ctx context.Context, q sqlx.ExtContext, assetID int64, limit int) ([]model.Movement, error) {
	query := `SELECT id, asset_id, from_location_id, to_location_id, moved_by,
	                 movement_type, quantity, moved_at, notes
	          FROM movements
	          WHERE asset_id = ?
	          ORDER BY moved_at DESC, id DESC`
	args := []any{assetID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []movementRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	movements := make([]model.Movement, 0, len(rows))
	for i := range rows {
		movements = append(movements, rows[i].toModel())
	}
	return movements, nil
}

// CountMovements returns the number of movements recorded for an asset.
func CountMovements(ctx context.Context, q sqlx.ExtContext, assetID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(`SELECT COUNT(*) FROM movements WHERE asset_id = ?`), assetID)
	if err != nil {
		return 0, fmt.Errorf("counting movements: %w", err)
	}
	return n, nil
}
