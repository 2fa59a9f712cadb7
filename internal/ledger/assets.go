package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/events"
	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

// CreateAssetRequest registers a new asset at a location.
type CreateAssetRequest struct {
	Name          string
	ModelNumber   string
	LocationID    int64
	KeeperPayroll string
	Notes         string
	CreatedBy     string
	Variant       model.Variant
}

// CreateAsset inserts an asset and records its first placement.
func (l *Ledger) CreateAsset(ctx context.Context, req CreateAssetRequest) (*model.Asset, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, errorf(KindValidation, "name is required")
	}
	switch v := req.Variant.(type) {
	case *model.Unique:
		v.SerialNumber = strings.TrimSpace(v.SerialNumber)
		if v.SerialNumber == "" {
			return nil, errorf(KindValidation, "serial number is required for unique assets")
		}
		if v.IndividualStatus == "" {
			v.IndividualStatus = model.StatusNotInUse
		}
		if v.IndividualStatus == model.StatusInUse || !model.ValidIndividualStatus(v.IndividualStatus) {
			return nil, errorf(KindValidation, "invalid initial status %q", v.IndividualStatus)
		}
	case *model.Bulk:
		if v.CurrentStockLevel < 0 || v.MinimumThreshold < 0 {
			return nil, errorf(KindValidation, "stock level and threshold must not be negative")
		}
		v.LastRestocked = nil
	default:
		return nil, errorf(KindValidation, "asset must be unique or bulk")
	}

	facts, err := l.resolveMove(ctx, req.LocationID, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	keeperKnown := true
	if req.KeeperPayroll != "" {
		if keeperKnown, err = l.userExists(ctx, req.KeeperPayroll); err != nil {
			return nil, err
		}
	}
	if !facts.toLocation {
		return nil, errorf(KindLocationNotFound, "location %d not found", req.LocationID)
	}
	if !facts.mover {
		return nil, errorf(KindInvalidUser, "unknown user %q", req.CreatedBy)
	}
	if !keeperKnown {
		return nil, errorf(KindInvalidUser, "unknown keeper %q", req.KeeperPayroll)
	}

	asset := &model.Asset{
		Name:          req.Name,
		ModelNumber:   req.ModelNumber,
		LocationID:    req.LocationID,
		KeeperPayroll: req.KeeperPayroll,
		Notes:         req.Notes,
		Variant:       req.Variant,
	}
	now := l.now()
	err = l.withTx(ctx, func(tx *sqlx.Tx) error {
		if u, ok := asset.Unique(); ok {
			exists, err := store.SerialNumberExists(ctx, tx, u.SerialNumber)
			if err != nil {
				return err
			}
			if exists {
				return errorf(KindValidation, "serial number %q is already registered", u.SerialNumber)
			}
		}

		asset.CreatedAt, asset.UpdatedAt = now, now
		id, err := store.CreateAsset(ctx, tx, asset)
		if err != nil {
			return err
		}
		asset.ID = id

		quantity := 1
		if b, ok := asset.Bulk(); ok {
			quantity = b.CurrentStockLevel
		}
		_, err = recordMove(ctx, tx, now, &model.Movement{
			AssetID:      id,
			ToLocationID: asset.LocationID,
			MovedBy:      req.CreatedBy,
			MovementType: model.MovementInitial,
			Quantity:     quantity,
			Notes:        "Initial placement",
		}, facts)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("asset created", "asset_id", asset.ID, "name", asset.Name, "bulk", asset.IsBulk(), "by", req.CreatedBy)
	e := events.New(events.AssetCreated, asset.ID, req.CreatedBy)
	e.StockLevel = stockLevel(asset)
	l.publish(ctx, withLowStock([]events.Event{e}, asset, req.CreatedBy)...)
	return asset, nil
}

// SetAssetStatus changes a unique asset's status outside the assignment
// lifecycle, e.g. to retire it. in_use is reserved for assignments.
func (l *Ledger) SetAssetStatus(ctx context.Context, assetID int64, status, actor string) (*model.Asset, error) {
	var asset *model.Asset
	err := l.withTx(ctx, func(tx *sqlx.Tx) error {
		reg := registry{q: tx, now: l.now()}
		a, err := reg.lock(ctx, assetID)
		if err != nil {
			return err
		}
		if !a.IsBulk() && status == model.StatusInUse {
			return errorf(KindValidation, "status %q is set by assigning the asset", status)
		}
		active, err := store.GetActiveAssignment(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if active != nil && !a.IsBulk() {
			return errorf(KindAlreadyAssigned, "asset %d is assigned (assignment %d)", assetID, active.ID)
		}
		if err := reg.setIndividualStatus(ctx, a, status); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("asset status changed", "asset_id", assetID, "status", status, "by", actor)
	return asset, nil
}

// GetAsset returns an asset by ID.
func (l *Ledger) GetAsset(ctx context.Context, id int64) (*model.Asset, error) {
	a, err := store.GetAsset(ctx, l.db, id)
	if err != nil {
		return nil, internal("getting asset", err)
	}
	if a == nil {
		return nil, errorf(KindNotFound, "asset %d not found", id)
	}
	return a, nil
}

// ListAssets returns all assets, optionally only of one kind
// (store.KindUnique or store.KindBulk).
func (l *Ledger) ListAssets(ctx context.Context, kind string) ([]*model.Asset, error) {
	switch kind {
	case "", store.KindUnique, store.KindBulk:
	default:
		return nil, errorf(KindValidation, "unknown asset kind %q", kind)
	}
	assets, err := store.ListAssets(ctx, l.db, kind)
	if err != nil {
		return nil, internal("listing assets", err)
	}
	return assets, nil
}
