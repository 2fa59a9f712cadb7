package ledger

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

// registry is the asset registry bound to one transaction. Its setters
// write through to storage and keep the in-memory asset current.
type registry struct {
	q   sqlx.ExtContext
	now time.Time
}

// lock takes the asset's row lock and returns the asset as of that point.
func (r registry) lock(ctx context.Context, id int64) (*model.Asset, error) {
	ok, err := store.LockAsset(ctx, r.q, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorf(KindNotFound, "asset %d not found", id)
	}
	return r.getByID(ctx, id)
}

func (r registry) getByID(ctx context.Context, id int64) (*model.Asset, error) {
	a, err := store.GetAsset(ctx, r.q, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errorf(KindNotFound, "asset %d not found", id)
	}
	return a, nil
}

// updateLocation moves the asset without validating the destination.
func (r registry) updateLocation(ctx context.Context, a *model.Asset, locationID int64) error {
	if err := store.UpdateAssetLocation(ctx, r.q, a.ID, locationID, r.now); err != nil {
		return err
	}
	a.LocationID = locationID
	a.UpdatedAt = r.now
	return nil
}

func (r registry) updateStock(ctx context.Context, a *model.Asset, delta int) error {
	b, ok := a.Bulk()
	if !ok {
		return errorf(KindTypeMismatch, "asset %d is not a bulk asset", a.ID)
	}
	if b.CurrentStockLevel+delta < 0 {
		return errorf(KindInsufficientStock, "insufficient stock: have %d, need %d", b.CurrentStockLevel, -delta)
	}
	ok, err := store.AdjustStock(ctx, r.q, a.ID, delta, r.now)
	if err != nil {
		return err
	}
	if !ok {
		return errorf(KindInsufficientStock, "insufficient stock for asset %d", a.ID)
	}
	b.CurrentStockLevel += delta
	a.UpdatedAt = r.now
	return nil
}

func (r registry) markRestocked(ctx context.Context, a *model.Asset) error {
	b, ok := a.Bulk()
	if !ok {
		return errorf(KindTypeMismatch, "asset %d is not a bulk asset", a.ID)
	}
	if err := store.MarkRestocked(ctx, r.q, a.ID, r.now); err != nil {
		return err
	}
	at := r.now
	b.LastRestocked = &at
	a.UpdatedAt = r.now
	return nil
}

func (r registry) setIndividualStatus(ctx context.Context, a *model.Asset, status string) error {
	u, ok := a.Unique()
	if !ok {
		return errorf(KindTypeMismatch, "asset %d is not a unique asset", a.ID)
	}
	if !model.ValidIndividualStatus(status) {
		return errorf(KindValidation, "invalid status %q", status)
	}
	if err := store.SetIndividualStatus(ctx, r.q, a.ID, status, r.now); err != nil {
		return err
	}
	u.IndividualStatus = status
	a.UpdatedAt = r.now
	return nil
}

// setKeeper sets the keeper; an empty payroll clears it.
func (r registry) setKeeper(ctx context.Context, a *model.Asset, payroll string) error {
	if err := store.SetKeeper(ctx, r.q, a.ID, payroll, r.now); err != nil {
		return err
	}
	a.KeeperPayroll = payroll
	a.UpdatedAt = r.now
	return nil
}
