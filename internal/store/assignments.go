package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
)

type assignmentRow struct {
	ID                int64          `db:"id"`
	AssetID           int64          `db:"asset_id"`
	AssignedTo        string         `db:"assigned_to"`
	AssignedBy        string         `db:"assigned_by"`
	DateIssued        time.Time      `db:"date_issued"`
	ConditionIssued   string         `db:"condition_issued"`
	QuantityIssued    int            `db:"quantity_issued"`
	QuantityRemaining int            `db:"quantity_remaining"`
	Status            string         `db:"status"`
	DateReturned      *time.Time     `db:"date_returned"`
	ConditionReturned sql.NullString `db:"condition_returned"`
	Notes             sql.NullString `db:"notes"`
	DeletedAt         *time.Time     `db:"deleted_at"`
	DeletedBy         sql.NullString `db:"deleted_by"`
	DeleteReason      sql.NullString `db:"delete_reason"`

	AssetName      string         `db:"asset_name"`
	AssetIsBulk    bool           `db:"asset_is_bulk"`
	SerialNumber   sql.NullString `db:"serial_number"`
	LocationID     int64          `db:"location_id"`
	RegionName     string         `db:"region_name"`
	DepartmentName string         `db:"department_name"`
	FirstName      string         `db:"assigned_to_first_name"`
	LastName       string         `db:"assigned_to_last_name"`
}

func (r *assignmentRow) toModel() *model.Assignment {
	return &model.Assignment{
		ID:                r.ID,
		AssetID:           r.AssetID,
		AssignedTo:        r.AssignedTo,
		AssignedBy:        r.AssignedBy,
		DateIssued:        r.DateIssued,
		ConditionIssued:   r.ConditionIssued,
		QuantityIssued:    r.QuantityIssued,
		QuantityRemaining: r.QuantityRemaining,
		Status:            r.Status,
		DateReturned:      r.DateReturned,
		ConditionReturned: r.ConditionReturned.String,
		Notes:             r.Notes.String,
		DeletedAt:         r.DeletedAt,
		DeletedBy:         r.DeletedBy.String,
		DeleteReason:      r.DeleteReason.String,
		AssetName:         r.AssetName,
		AssetIsBulk:       r.AssetIsBulk,
		SerialNumber:      r.SerialNumber.String,
		LocationID:        r.LocationID,
		RegionName:        r.RegionName,
		DepartmentName:    r.DepartmentName,
		AssignedToName:    strings.TrimSpace(r.FirstName + " " + r.LastName),
	}
}

const assignmentSelect = `SELECT a.id, a.asset_id, a.assigned_to, a.assigned_by, a.date_issued,
	       a.condition_issued, a.quantity_issued, a.quantity_remaining, a.status,
	       a.date_returned, a.condition_returned, a.notes,
	       a.deleted_at, a.deleted_by, a.delete_reason,
	       s.name AS asset_name, s.is_bulk AS asset_is_bulk, s.serial_number, s.location_id,
	       l.region_name, l.department_name,
	       u.first_name AS assigned_to_first_name, u.last_name AS assigned_to_last_name
	FROM assignments a
	JOIN assets s ON s.id = a.asset_id
	JOIN locations l ON l.id = s.location_id
	JOIN users u ON u.payroll_number = a.assigned_to`

// CreateAssignment inserts an assignment and returns its ID.
func CreateAssignment(ctx context.Context, q sqlx.ExtContext, a *model.Assignment) (int64, error) {
	var id int64
	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO assignments (asset_id, assigned_to, assigned_by, date_issued, condition_issued,
		                          quantity_issued, quantity_remaining, status, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		a.AssetID, a.AssignedTo, a.AssignedBy, a.DateIssued, a.ConditionIssued,
		a.QuantityIssued, a.QuantityRemaining, a.Status, nullString(a.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating assignment: %w", err)
	}
	return id, nil
}

// GetAssignment returns an assignment by ID, including logically removed
// ones, or nil if it does not exist.
func GetAssignment(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Assignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(assignmentSelect+` WHERE a.id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return row.toModel(), nil
}

// GetActiveAssignment returns the active, non-removed assignment of an asset,
// or nil. For bulk assets with several open assignments the newest is returned.
func GetActiveAssignment(ctx context.Context, q sqlx.ExtContext, assetID int64) (*model.Assignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(assignmentSelect+`
		WHERE a.asset_id = ? AND a.status = ? AND a.deleted_at IS NULL
		ORDER BY a.id DESC LIMIT 1`),
		assetID, model.AssignmentActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active assignment: %w", err)
	}
	return row.toModel(), nil
}

// AssignmentFilter narrows ListAssignments. Zero values match everything.
type AssignmentFilter struct {
	AssetID        int64
	AssignedTo     string
	Status         string
	IncludeDeleted bool
}

// ListAssignments returns assignments matching the filter, newest first.
func ListAssignments(ctx context.Context, q sqlx.ExtContext, f AssignmentFilter) ([]*model.Assignment, error) {
	query := assignmentSelect + ` WHERE 1=1`
	var args []any

	if f.AssetID > 0 {
		query += ` AND a.asset_id = ?`
		args = append(args, f.AssetID)
	}
	if f.AssignedTo != "" {
		query += ` AND a.assigned_to = ?`
		args = append(args, f.AssignedTo)
	}
	if f.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, f.Status)
	}
	if !f.IncludeDeleted {
		query += ` AND a.deleted_at IS NULL`
	}

	query += ` ORDER BY a.date_issued DESC, a.id DESC`

	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	out := make([]*model.Assignment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

// UpdateAssignmentReturn records a full or partial return.
func UpdateAssignmentReturn(ctx context.Context, q sqlx.ExtContext, a *model.Assignment) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE assignments
		 SET quantity_remaining = ?, status = ?, date_returned = ?, condition_returned = ?, notes = ?
		 WHERE id = ?`),
		a.QuantityRemaining, a.Status, a.DateReturned, nullString(a.ConditionReturned), nullString(a.Notes), a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating assignment: %w", err)
	}
	return nil
}

// MarkAssignmentDeleted logically removes an assignment. Its remaining
// quantity is zeroed since the caller has restored it.
func MarkAssignmentDeleted(ctx context.Context, q sqlx.ExtContext, id int64, deletedBy, reason string, now time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE assignments
		 SET quantity_remaining = 0, deleted_at = ?, deleted_by = ?, delete_reason = ?
		 WHERE id = ? AND deleted_at IS NULL`),
		now, deletedBy, nullString(reason), id,
	)
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return nil
}

// SumIssued returns the total quantity issued against an asset by
// non-removed assignments.
func SumIssued(ctx context.Context, q sqlx.ExtContext, assetID int64) (int, error) {
	var total int
	err := sqlx.GetContext(ctx, q, &total, q.Rebind(
		`SELECT COALESCE(SUM(quantity_issued), 0) FROM assignments
		 WHERE asset_id = ? AND deleted_at IS NULL`), assetID)
	if err != nil {
		return 0, fmt.Errorf("summing issued quantity: %w", err)
	}
	return total, nil
}

// SumOutstanding returns the quantity still held by open assignments of an asset.
func SumOutstanding(ctx context.Context, q sqlx.ExtContext, assetID int64) (int, error) {
	var total int
	err := sqlx.GetContext(ctx, q, &total, q.Rebind(
		`SELECT COALESCE(SUM(quantity_remaining), 0) FROM assignments
		 WHERE asset_id = ? AND deleted_at IS NULL AND status <> ?`),
		assetID, model.AssignmentReturned)
	if err != nil {
		return 0, fmt.Errorf("summing outstanding quantity: %w", err)
	}
	return total, nil
}
