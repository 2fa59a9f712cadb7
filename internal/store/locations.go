package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
)

type locationRow struct {
	ID             int64      `db:"id"`
	RegionName     string     `db:"region_name"`
	DepartmentName string     `db:"department_name"`
	CreatedAt      time.Time  `db:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (r *locationRow) toModel() *model.Location {
	return &model.Location{
		ID:             r.ID,
		RegionName:     r.RegionName,
		DepartmentName: r.DepartmentName,
		CreatedAt:      r.CreatedAt,
		DeletedAt:      r.DeletedAt,
	}
}

// CreateLocation creates a new location.
func CreateLocation(ctx context.Context, q sqlx.ExtContext, region, department string) (*model.Location, error) {
	var id int64
	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO locations (region_name, department_name, created_at) VALUES (?, ?, ?) RETURNING id`),
		region, department, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}

	return GetLocation(ctx, q, id)
}

// GetLocation returns a location by ID (including soft-deleted ones), or nil.
func GetLocation(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Location, error) {
	var row locationRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(
		`SELECT id, region_name, department_name, created_at, deleted_at
		 FROM locations WHERE id = ?`), id,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return row.toModel(), nil
}

// ListLocations returns all non-deleted locations.
func ListLocations(ctx context.Context, q sqlx.ExtContext) ([]*model.Location, error) {
	var rows []locationRow
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, region_name, department_name, created_at, deleted_at
		 FROM locations WHERE deleted_at IS NULL ORDER BY region_name, department_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	locations := make([]*model.Location, 0, len(rows))
	for i := range rows {
		locations = append(locations, rows[i].toModel())
	}
	return locations, nil
}

// ErrLocationInUse is returned when deleting a location that still holds assets.
var ErrLocationInUse = errors.New("location still holds assets")

// DeleteLocation soft-deletes a location. Fails if any asset is kept there.
func DeleteLocation(ctx context.Context, q sqlx.ExtContext, id int64) error {
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind(`SELECT COUNT(*) FROM assets WHERE location_id = ?`), id)
	if err != nil {
		return fmt.Errorf("checking location assets: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w (%d)", ErrLocationInUse, count)
	}

	_, err = q.ExecContext(ctx, q.Rebind(
		`UPDATE locations SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`),
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting location: %w", err)
	}
	return nil
}
