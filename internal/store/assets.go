package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
)

type assetRow struct {
	ID                int64          `db:"id"`
	Name              string         `db:"name"`
	ModelNumber       sql.NullString `db:"model_number"`
	IsBulk            bool           `db:"is_bulk"`
	SerialNumber      sql.NullString `db:"serial_number"`
	IndividualStatus  sql.NullString `db:"individual_status"`
	CurrentStockLevel sql.NullInt64  `db:"current_stock_level"`
	MinimumThreshold  sql.NullInt64  `db:"minimum_threshold"`
	LastRestocked     *time.Time     `db:"last_restocked"`
	LocationID        int64          `db:"location_id"`
	KeeperPayroll     sql.NullString `db:"keeper_payroll_number"`
	Notes             sql.NullString `db:"notes"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r *assetRow) toModel() *model.Asset {
	a := &model.Asset{
		ID:            r.ID,
		Name:          r.Name,
		ModelNumber:   r.ModelNumber.String,
		LocationID:    r.LocationID,
		KeeperPayroll: r.KeeperPayroll.String,
		Notes:         r.Notes.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.IsBulk {
		a.Variant = &model.Bulk{
			CurrentStockLevel: int(r.CurrentStockLevel.Int64),
			MinimumThreshold:  int(r.MinimumThreshold.Int64),
			LastRestocked:     r.LastRestocked,
		}
	} else {
		a.Variant = &model.Unique{
			SerialNumber:     r.SerialNumber.String,
			IndividualStatus: r.IndividualStatus.String,
		}
	}
	return a
}

const assetColumns = `id, name, model_number, is_bulk, serial_number, individual_status,
	current_stock_level, minimum_threshold, last_restocked, location_id,
	keeper_payroll_number, notes, created_at, updated_at`

// CreateAsset inserts an asset and returns its ID. CreatedAt is used for both
// timestamps.
func CreateAsset(ctx context.Context, q sqlx.ExtContext, a *model.Asset) (int64, error) {
	var (
		serial, status   sql.NullString
		stock, threshold sql.NullInt64
		lastRestocked    *time.Time
		isBulk           bool
	)
	switch v := a.Variant.(type) {
	case *model.Unique:
		serial = nullString(v.SerialNumber)
		status = nullString(v.IndividualStatus)
	case *model.Bulk:
		isBulk = true
		stock = sql.NullInt64{Int64: int64(v.CurrentStockLevel), Valid: true}
		threshold = sql.NullInt64{Int64: int64(v.MinimumThreshold), Valid: true}
		lastRestocked = v.LastRestocked
	default:
		return 0, fmt.Errorf("creating asset: missing variant")
	}

	var id int64
	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO assets (name, model_number, is_bulk, serial_number, individual_status,
		                     current_stock_level, minimum_threshold, last_restocked, location_id,
		                     keeper_payroll_number, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		a.Name, nullString(a.ModelNumber), isBulk, serial, status,
		stock, threshold, lastRestocked, a.LocationID,
		nullString(a.KeeperPayroll), nullString(a.Notes), a.CreatedAt, a.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating asset: %w", err)
	}
	return id, nil
}

// GetAsset returns an asset by ID, or nil if it does not exist.
func GetAsset(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Asset, error) {
	var row assetRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT `+assetColumns+` FROM assets WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return row.toModel(), nil
}

// SerialNumberExists reports whether a unique asset already uses serial.
func SerialNumberExists(ctx context.Context, q sqlx.ExtContext, serial string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind(`SELECT COUNT(*) FROM assets WHERE serial_number = ?`), serial)
	if err != nil {
		return false, fmt.Errorf("checking serial number: %w", err)
	}
	return count > 0, nil
}

// Asset kinds accepted by ListAssets.
const (
	KindUnique = "unique"
	KindBulk   = "bulk"
)

// ListAssets returns all assets, optionally filtered by kind.
func ListAssets(ctx context.Context, q sqlx.ExtContext, kind string) ([]*model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets`
	var args []any
	switch kind {
	case KindUnique:
		query += ` WHERE is_bulk = ?`
		args = append(args, false)
	case KindBulk:
		query += ` WHERE is_bulk = ?`
		args = append(args, true)
	}
	query += ` ORDER BY name, id`

	return selectAssets(ctx, q, query, args...)
}

// ListLowStockAssets returns bulk assets at or under their minimum threshold.
func ListLowStockAssets(ctx context.Context, q sqlx.ExtContext) ([]*model.Asset, error) {
	return selectAssets(ctx, q,
		`SELECT `+assetColumns+` FROM assets
		 WHERE is_bulk = ? AND current_stock_level <= minimum_threshold
		 ORDER BY current_stock_level - minimum_threshold, name`, true)
}

func selectAssets(ctx context.Context, q sqlx.ExtContext, query string, args ...any) ([]*model.Asset, error) {
	var rows []assetRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	assets := make([]*model.Asset, 0, len(rows))
	for i := range rows {
		assets = append(assets, rows[i].toModel())
	}
	return assets, nil
}

// LockAsset takes the write lock on an asset row for the rest of the
// transaction. It reports false if the asset does not exist.
func LockAsset(ctx context.Context, q sqlx.ExtContext, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, q.Rebind(`UPDATE assets SET updated_at = updated_at WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("locking asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("locking asset: %w", err)
	}
	return n == 1, nil
}

// UpdateAssetLocation sets an asset's location.
func UpdateAssetLocation(ctx context.Context, q sqlx.ExtContext, id, locationID int64, now time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE assets SET location_id = ?, updated_at = ? WHERE id = ?`),
		locationID, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating asset location: %w", err)
	}
	return nil
}

// AdjustStock adds delta to a bulk asset's stock level. The update is
// refused (false) when it would take the level below zero.
func AdjustStock(ctx context.Context, q sqlx.ExtContext, id int64, delta int, now time.Time) (bool, error) {
	result, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE assets SET current_stock_level = current_stock_level + ?, updated_at = ?
		 WHERE id = ? AND is_bulk = ? AND current_stock_level + ? >= 0`),
		delta, now, id, true, delta,
	)
	if err != nil {
		return false, fmt.Errorf("adjusting stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adjusting stock: %w", err)
	}
	return n == 1, nil
}

// MarkRestocked sets a bulk asset's last restock time.
func MarkRestocked(ctx context.Context, q sqlx.ExtContext, id int64, at time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE assets SET last_restocked = ?, updated_at = ? WHERE id = ? AND is_bulk = ?`),
		at, at, id, true,
	)
	if err != nil {
		return fmt.Errorf("marking restock: %w", err)
	}
	return nil
}

// SetIndividualStatus sets a unique asset's status.
func SetIndividualStatus(ctx context.Context, q sqlx.ExtContext, id int64, status string, now time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE assets SET individual_status = ?, updated_at = ? WHERE id = ? AND is_bulk = ?`),
		status, now, id, false,
	)
	if err != nil {
		return fmt.Errorf("setting asset status: %w", err)
	}
	return nil
}

// SetKeeper sets or clears (empty payroll) an asset's keeper.
func SetKeeper(ctx context.Context, q sqlx.ExtContext, id int64, payroll string, now time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE assets SET keeper_payroll_number = ?, updated_at = ? WHERE id = ?`),
		nullString(payroll), now, id,
	)
	if err != nil {
		return fmt.Errorf("setting asset keeper: %w", err)
	}
	return nil
}
