package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
)

const userColumns = `payroll_number, first_name, last_name, role, created_at, deleted_at`

type userRow struct {
	PayrollNumber string     `db:"payroll_number"`
	FirstName     string     `db:"first_name"`
	LastName      string     `db:"last_name"`
	Role          string     `db:"role"`
	CreatedAt     time.Time  `db:"created_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		PayrollNumber: r.PayrollNumber,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Role:          r.Role,
		CreatedAt:     r.CreatedAt,
		DeletedAt:     r.DeletedAt,
	}
}

// CreateUser creates a new user.
func CreateUser(ctx context.Context, q sqlx.ExtContext, payroll, firstName, lastName, role string) (*model.User, error) {
	_, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO users (payroll_number, first_name, last_name, role, created_at) VALUES (?, ?, ?, ?, ?)`),
		payroll, firstName, lastName, role, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, q, payroll)
}

// GetUser returns a user by payroll number (including soft-deleted), or nil.
func GetUser(ctx context.Context, q sqlx.ExtContext, payroll string) (*model.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(
		`SELECT `+userColumns+` FROM users WHERE payroll_number = ?`), payroll,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return row.toModel(), nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, q sqlx.ExtContext) ([]*model.User, error) {
	var rows []userRow
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY last_name, first_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]*model.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toModel())
	}
	return users, nil
}

// UpdateUser updates a user's role.
func UpdateUser(ctx context.Context, q sqlx.ExtContext, payroll, role string) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE users SET role = ? WHERE payroll_number = ? AND deleted_at IS NULL`),
		role, payroll,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, q sqlx.ExtContext, payroll string) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE users SET deleted_at = ? WHERE payroll_number = ? AND deleted_at IS NULL`),
		time.Now().UTC(), payroll,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
