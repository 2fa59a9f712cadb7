// Package ledger implements the asset assignment and movement ledger: the
// transactional rules for issuing, returning, moving and restocking assets.
//
// Every mutating operation runs in a single transaction that first locks the
// asset row, then reads, validates and writes. Validation failures roll the
// transaction back and are reported as *Error values.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/directory"
	"github.com/erazemk/assetledger/internal/events"
)

// Ledger is the entry point for ledger operations.
type Ledger struct {
	db        *sqlx.DB
	locations directory.Locations
	users     directory.Users
	events    events.Publisher
	now       func() time.Time
}

// New creates a ledger over db. A nil publisher discards events.
func New(db *sqlx.DB, locations directory.Locations, users directory.Users, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Ledger{
		db:        db,
		locations: locations,
		users:     users,
		events:    publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// withTx runs fn in a transaction. Errors that are not *Error are reported
// as internal failures.
func (l *Ledger) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return internal("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		return internal("storage failure", err)
	}

	if err := tx.Commit(); err != nil {
		return internal("committing transaction", err)
	}
	return nil
}

// publish delivers events for a committed operation. Failures are logged and
// do not affect the outcome.
func (l *Ledger) publish(ctx context.Context, evs ...events.Event) {
	if len(evs) == 0 {
		return
	}
	if err := l.events.Publish(ctx, evs...); err != nil {
		slog.Warn("publishing ledger events", "type", evs[0].Type, "asset_id", evs[0].AssetID, "error", err)
	}
}

// userExists resolves an identity outside any transaction.
func (l *Ledger) userExists(ctx context.Context, payroll string) (bool, error) {
	if payroll == "" {
		return false, nil
	}
	ok, err := l.users.Exists(ctx, payroll)
	if err != nil {
		return false, internal("resolving user", err)
	}
	return ok, nil
}

// locationExists resolves a location outside any transaction.
func (l *Ledger) locationExists(ctx context.Context, id int64) (bool, error) {
	ok, err := l.locations.Exists(ctx, id)
	if err != nil {
		return false, internal("resolving location", err)
	}
	return ok, nil
}
