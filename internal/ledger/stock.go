package ledger

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/events"
	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

// recentLimit bounds the activity lists in a stock report.
const recentLimit = 10

// IsLowStock reports whether a bulk asset is at or under its minimum
// threshold. Unique assets are never low on stock.
func IsLowStock(a *model.Asset) bool {
	b, ok := a.Bulk()
	return ok && b.IsLowStock()
}

// RestockRequest adds stock to a bulk asset.
type RestockRequest struct {
	AssetID     int64
	Quantity    int
	RestockedBy string
	Notes       string
}

// Restock increments a bulk asset's stock and appends a restock log.
func (l *Ledger) Restock(ctx context.Context, req RestockRequest) (*model.RestockLog, *model.Asset, error) {
	known, err := l.userExists(ctx, req.RestockedBy)
	if err != nil {
		return nil, nil, err
	}

	var (
		log   *model.RestockLog
		asset *model.Asset
	)
	now := l.now()
	err = l.withTx(ctx, func(tx *sqlx.Tx) error {
		reg := registry{q: tx, now: now}
		a, err := reg.lock(ctx, req.AssetID)
		if err != nil {
			return err
		}
		if !a.IsBulk() {
			return errorf(KindTypeMismatch, "asset %d is not a bulk asset", a.ID)
		}
		if req.Quantity <= 0 {
			return errorf(KindValidation, "restock quantity must be positive")
		}
		if !known {
			return errorf(KindInvalidUser, "unknown user %q", req.RestockedBy)
		}

		if err := reg.updateStock(ctx, a, req.Quantity); err != nil {
			return err
		}
		if err := reg.markRestocked(ctx, a); err != nil {
			return err
		}

		log = &model.RestockLog{
			AssetID:           a.ID,
			QuantityRestocked: req.Quantity,
			RestockedAt:       now,
			RestockedBy:       req.RestockedBy,
			Notes:             req.Notes,
		}
		if log.ID, err = store.InsertRestock(ctx, tx, log); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("asset restocked", "asset_id", asset.ID, "quantity", req.Quantity, "by", req.RestockedBy)
	e := events.New(events.AssetRestocked, asset.ID, req.RestockedBy)
	e.Quantity = req.Quantity
	e.StockLevel = stockLevel(asset)
	l.publish(ctx, withLowStock([]events.Event{e}, asset, req.RestockedBy)...)
	return log, asset, nil
}

// Report aggregates a bulk asset's stock state and recent activity.
func (l *Ledger) Report(ctx context.Context, assetID int64) (*model.StockReport, error) {
	a, err := store.GetAsset(ctx, l.db, assetID)
	if err != nil {
		return nil, internal("getting asset", err)
	}
	if a == nil {
		return nil, errorf(KindNotFound, "asset %d not found", assetID)
	}
	b, ok := a.Bulk()
	if !ok {
		return nil, errorf(KindTypeMismatch, "asset %d is not a bulk asset", assetID)
	}

	report := &model.StockReport{
		AssetID:           a.ID,
		CurrentStockLevel: b.CurrentStockLevel,
		MinimumThreshold:  b.MinimumThreshold,
		IsLowStock:        b.IsLowStock(),
	}
	if report.TotalIssuedToDate, err = store.SumIssued(ctx, l.db, a.ID); err != nil {
		return nil, internal("summing issued stock", err)
	}
	if report.TotalRestockedToDate, err = store.SumRestocked(ctx, l.db, a.ID); err != nil {
		return nil, internal("summing restocked stock", err)
	}
	if report.RecentMovements, err = store.ListMovements(ctx, l.db, a.ID, recentLimit); err != nil {
		return nil, internal("listing movements", err)
	}
	if report.RecentRestocks, err = store.ListRestocks(ctx, l.db, a.ID, recentLimit); err != nil {
		return nil, internal("listing restocks", err)
	}
	return report, nil
}

// ListLowStock returns the bulk assets at or under their threshold.
func (l *Ledger) ListLowStock(ctx context.Context) ([]*model.Asset, error) {
	assets, err := store.ListLowStockAssets(ctx, l.db)
	if err != nil {
		return nil, internal("listing low stock", err)
	}
	return assets, nil
}

func stockLevel(a *model.Asset) *int {
	b, ok := a.Bulk()
	if !ok {
		return nil
	}
	level := b.CurrentStockLevel
	return &level
}

// withLowStock appends a stock.low event when a is at or under its threshold.
func withLowStock(evs []events.Event, a *model.Asset, actor string) []events.Event {
	if !IsLowStock(a) {
		return evs
	}
	e := events.New(events.StockLow, a.ID, actor)
	e.StockLevel = stockLevel(a)
	return append(evs, e)
}
