// Package directory provides the location and user registries the ledger
// validates references against.
package directory

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

// Locations resolves location identifiers.
type Locations interface {
	Exists(ctx context.Context, id int64) (bool, error)
	// Describe returns the location, or nil if it is unknown.
	Describe(ctx context.Context, id int64) (*model.Location, error)
}

// Users resolves payroll numbers.
type Users interface {
	Exists(ctx context.Context, payroll string) (bool, error)
	// Describe returns the user, or nil if it is unknown.
	Describe(ctx context.Context, payroll string) (*model.User, error)
}

// SQLLocations is a Locations backed by the locations table.
// Soft-deleted locations do not resolve.
type SQLLocations struct {
	DB sqlx.ExtContext
}

// Exists implements Locations.
func (d *SQLLocations) Exists(ctx context.Context, id int64) (bool, error) {
	loc, err := d.Describe(ctx, id)
	return loc != nil, err
}

// Describe implements Locations.
func (d *SQLLocations) Describe(ctx context.Context, id int64) (*model.Location, error) {
	loc, err := store.GetLocation(ctx, d.DB, id)
	if err != nil || loc == nil || loc.DeletedAt != nil {
		return nil, err
	}
	return loc, nil
}

// SQLUsers is a Users backed by the users table.
// Soft-deleted users do not resolve.
type SQLUsers struct {
	DB sqlx.ExtContext
}

// Exists implements Users.
func (d *SQLUsers) Exists(ctx context.Context, payroll string) (bool, error) {
	u, err := d.Describe(ctx, payroll)
	return u != nil, err
}

// Describe implements Users.
func (d *SQLUsers) Describe(ctx context.Context, payroll string) (*model.User, error) {
	if payroll == "" {
		return nil, nil
	}
	u, err := store.GetUser(ctx, d.DB, payroll)
	if err != nil || u == nil || u.DeletedAt != nil {
		return nil, err
	}
	return u, nil
}
