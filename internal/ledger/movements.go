package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/events"
	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

// moveFacts are collaborator answers for a move, gathered before the
// transaction opens and checked inside it.
type moveFacts struct {
	toLocation bool
	mover      bool
}

func (l *Ledger) resolveMove(ctx context.Context, toLocationID int64, movedBy string) (moveFacts, error) {
	var f moveFacts
	var err error
	if f.toLocation, err = l.locationExists(ctx, toLocationID); err != nil {
		return f, err
	}
	if f.mover, err = l.userExists(ctx, movedBy); err != nil {
		return f, err
	}
	return f, nil
}

// recordMove validates and appends a movement. The caller updates the asset's
// location in the same transaction.
func recordMove(ctx context.Context, q sqlx.ExtContext, now time.Time, m *model.Movement, f moveFacts) (*model.Movement, error) {
	if !f.toLocation {
		return nil, errorf(KindLocationNotFound, "location %d not found", m.ToLocationID)
	}
	if m.FromLocationID != nil && *m.FromLocationID == m.ToLocationID {
		return nil, errorf(KindSameLocation, "asset is already at location %d", m.ToLocationID)
	}
	if !f.mover {
		return nil, errorf(KindInvalidUser, "unknown user %q", m.MovedBy)
	}

	m.MovedAt = now
	id, err := store.InsertMovement(ctx, q, m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	return m, nil
}

// MoveRequest moves an asset between locations.
type MoveRequest struct {
	AssetID      int64
	ToLocationID int64
	MovedBy      string
	Notes        string
}

// MoveAsset relocates an asset and records a transfer movement. Bulk pools
// move as a whole; the movement records the stock level moved.
func (l *Ledger) MoveAsset(ctx context.Context, req MoveRequest) (*model.Movement, *model.Asset, error) {
	facts, err := l.resolveMove(ctx, req.ToLocationID, req.MovedBy)
	if err != nil {
		return nil, nil, err
	}

	var (
		movement *model.Movement
		asset    *model.Asset
	)
	now := l.now()
	err = l.withTx(ctx, func(tx *sqlx.Tx) error {
		reg := registry{q: tx, now: now}
		a, err := reg.lock(ctx, req.AssetID)
		if err != nil {
			return err
		}

		quantity := 1
		if b, ok := a.Bulk(); ok {
			quantity = b.CurrentStockLevel
		}
		from := a.LocationID
		movement, err = recordMove(ctx, tx, now, &model.Movement{
			AssetID:        a.ID,
			FromLocationID: &from,
			ToLocationID:   req.ToLocationID,
			MovedBy:        req.MovedBy,
			MovementType:   model.MovementTransfer,
			Quantity:       quantity,
			Notes:          req.Notes,
		}, facts)
		if err != nil {
			return err
		}
		if err := reg.updateLocation(ctx, a, req.ToLocationID); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("asset moved", "asset_id", asset.ID, "from", *movement.FromLocationID, "to", movement.ToLocationID, "by", req.MovedBy)
	l.publish(ctx, movedEvent(movement))
	return movement, asset, nil
}

// History returns an asset's movements, newest first.
func (l *Ledger) History(ctx context.Context, assetID int64) ([]model.Movement, error) {
	a, err := store.GetAsset(ctx, l.db, assetID)
	if err != nil {
		return nil, internal("getting asset", err)
	}
	if a == nil {
		return nil, errorf(KindNotFound, "asset %d not found", assetID)
	}
	movements, err := store.ListMovements(ctx, l.db, assetID, 0)
	if err != nil {
		return nil, internal("listing movements", err)
	}
	return movements, nil
}

func movedEvent(m *model.Movement) events.Event {
	e := events.New(events.AssetMoved, m.AssetID, m.MovedBy)
	e.MovementID = m.ID
	e.Quantity = m.Quantity
	return e
}
