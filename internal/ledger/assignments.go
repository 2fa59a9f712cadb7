package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/events"
	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

// CreateRequest issues an asset, or a quantity of a bulk pool, to a person.
type CreateRequest struct {
	AssetID         int64
	AssignedTo      string
	AssignedBy      string
	Quantity        int
	ConditionIssued string
	Notes           string
	// ForceLocationID relocates a unique asset on issue when it differs
	// from the asset's current location.
	ForceLocationID *int64
}

// Create opens an assignment.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (*model.Assignment, error) {
	if req.ConditionIssued == "" {
		req.ConditionIssued = model.ConditionGood
	}

	assigneeKnown, err := l.userExists(ctx, req.AssignedTo)
	if err != nil {
		return nil, err
	}
	var facts moveFacts
	if req.ForceLocationID != nil {
		facts, err = l.resolveMove(ctx, *req.ForceLocationID, req.AssignedBy)
	} else {
		facts.mover, err = l.userExists(ctx, req.AssignedBy)
	}
	if err != nil {
		return nil, err
	}

	var (
		assignment *model.Assignment
		asset      *model.Asset
		movement   *model.Movement
	)
	now := l.now()
	err = l.withTx(ctx, func(tx *sqlx.Tx) error {
		reg := registry{q: tx, now: now}
		a, err := reg.lock(ctx, req.AssetID)
		if err != nil {
			return err
		}
		if !model.ValidCondition(req.ConditionIssued) {
			return errorf(KindValidation, "invalid condition %q", req.ConditionIssued)
		}
		if !assigneeKnown {
			return errorf(KindInvalidUser, "unknown assignee %q", req.AssignedTo)
		}
		if !facts.mover {
			return errorf(KindInvalidUser, "unknown user %q", req.AssignedBy)
		}

		switch v := a.Variant.(type) {
		case *model.Unique:
			if req.Quantity != 1 {
				return errorf(KindValidation, "unique assets are issued one at a time")
			}
			active, err := store.GetActiveAssignment(ctx, tx, a.ID)
			if err != nil {
				return err
			}
			if active != nil {
				return errorf(KindAlreadyAssigned, "asset %d is already assigned to %s", a.ID, active.AssignedTo)
			}
			if v.IndividualStatus == model.StatusRetired {
				return errorf(KindValidation, "asset %d is retired", a.ID)
			}
			if err := reg.setIndividualStatus(ctx, a, model.StatusInUse); err != nil {
				return err
			}
			if err := reg.setKeeper(ctx, a, req.AssignedTo); err != nil {
				return err
			}
			if req.ForceLocationID != nil && *req.ForceLocationID != a.LocationID {
				from := a.LocationID
				movement, err = recordMove(ctx, tx, now, &model.Movement{
					AssetID:        a.ID,
					FromLocationID: &from,
					ToLocationID:   *req.ForceLocationID,
					MovedBy:        req.AssignedBy,
					MovementType:   model.MovementIssue,
					Quantity:       1,
					Notes:          req.Notes,
				}, facts)
				if err != nil {
					return err
				}
				if err := reg.updateLocation(ctx, a, *req.ForceLocationID); err != nil {
					return err
				}
			}
		case *model.Bulk:
			if req.Quantity <= 0 {
				return errorf(KindValidation, "quantity must be positive")
			}
			if req.ForceLocationID != nil && *req.ForceLocationID != a.LocationID {
				return errorf(KindValidation, "bulk assets are issued from their pool location")
			}
			if err := reg.updateStock(ctx, a, -req.Quantity); err != nil {
				return err
			}
		}

		id, err := store.CreateAssignment(ctx, tx, &model.Assignment{
			AssetID:           a.ID,
			AssignedTo:        req.AssignedTo,
			AssignedBy:        req.AssignedBy,
			DateIssued:        now,
			ConditionIssued:   req.ConditionIssued,
			QuantityIssued:    req.Quantity,
			QuantityRemaining: req.Quantity,
			Status:            model.AssignmentActive,
			Notes:             req.Notes,
		})
		if err != nil {
			return err
		}
		if assignment, err = store.GetAssignment(ctx, tx, id); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("assignment created", "assignment_id", assignment.ID, "asset_id", asset.ID,
		"assigned_to", req.AssignedTo, "quantity", req.Quantity, "by", req.AssignedBy)
	e := events.New(events.AssignmentCreated, asset.ID, req.AssignedBy)
	e.AssignmentID = assignment.ID
	e.Quantity = req.Quantity
	e.StockLevel = stockLevel(asset)
	evs := []events.Event{e}
	if movement != nil {
		evs = append(evs, movedEvent(movement))
	}
	l.publish(ctx, withLowStock(evs, asset, req.AssignedBy)...)
	return assignment, nil
}

// ReturnRequest records a full or partial return.
type ReturnRequest struct {
	AssignmentID      int64
	ReturnedBy        string
	ConditionReturned string
	// Quantity defaults to 1 for unique assets and to the remaining
	// quantity for bulk assets.
	Quantity *int
	// ReturnLocationID relocates a unique asset on return when it differs
	// from the asset's current location.
	ReturnLocationID *int64
	Notes            string
}

// Return resolves all or part of an open assignment.
func (l *Ledger) Return(ctx context.Context, req ReturnRequest) (*model.Assignment, error) {
	var (
		facts moveFacts
		err   error
	)
	if req.ReturnLocationID != nil {
		facts, err = l.resolveMove(ctx, *req.ReturnLocationID, req.ReturnedBy)
	} else {
		facts.mover, err = l.userExists(ctx, req.ReturnedBy)
	}
	if err != nil {
		return nil, err
	}

	var (
		assignment *model.Assignment
		asset      *model.Asset
		movement   *model.Movement
		returned   int
	)
	now := l.now()
	err = l.withTx(ctx, func(tx *sqlx.Tx) error {
		reg := registry{q: tx, now: now}
		as, a, err := lockAssignment(ctx, reg, req.AssignmentID)
		if err != nil {
			return err
		}
		if as.Status == model.AssignmentReturned {
			return errorf(KindValidation, "assignment %d is already returned", as.ID)
		}
		if !facts.mover {
			return errorf(KindInvalidUser, "unknown user %q", req.ReturnedBy)
		}
		if req.ConditionReturned != "" && !model.ValidCondition(req.ConditionReturned) {
			return errorf(KindValidation, "invalid condition %q", req.ConditionReturned)
		}

		switch a.Variant.(type) {
		case *model.Unique:
			if req.Quantity != nil && *req.Quantity != 1 {
				return errorf(KindValidation, "unique assets are returned one at a time")
			}
			returned = 1
			as.QuantityRemaining = 0
			as.Status = model.AssignmentReturned
			as.DateReturned = &now
			as.ConditionReturned = req.ConditionReturned

			if err := reg.setIndividualStatus(ctx, a, model.StatusNotInUse); err != nil {
				return err
			}
			if err := reg.setKeeper(ctx, a, ""); err != nil {
				return err
			}
			if req.ReturnLocationID != nil && *req.ReturnLocationID != a.LocationID {
				from := a.LocationID
				movement, err = recordMove(ctx, tx, now, &model.Movement{
					AssetID:        a.ID,
					FromLocationID: &from,
					ToLocationID:   *req.ReturnLocationID,
					MovedBy:        req.ReturnedBy,
					MovementType:   model.MovementReturn,
					Quantity:       1,
					Notes:          req.Notes,
				}, facts)
				if err != nil {
					return err
				}
				if err := reg.updateLocation(ctx, a, *req.ReturnLocationID); err != nil {
					return err
				}
			}
		case *model.Bulk:
			returned = as.QuantityRemaining
			if req.Quantity != nil {
				returned = *req.Quantity
			}
			if returned <= 0 || returned > as.QuantityRemaining {
				return errorf(KindValidation, "return quantity must be between 1 and %d", as.QuantityRemaining)
			}
			if req.ReturnLocationID != nil && *req.ReturnLocationID != a.LocationID {
				return errorf(KindValidation, "bulk assets are returned to their pool location")
			}
			if err := reg.updateStock(ctx, a, returned); err != nil {
				return err
			}
			as.QuantityRemaining -= returned
			if as.QuantityRemaining == 0 {
				as.Status = model.AssignmentReturned
				as.DateReturned = &now
				as.ConditionReturned = req.ConditionReturned
			} else {
				as.Status = model.AssignmentPartiallyReturned
			}
		}

		as.Notes = appendNote(as.Notes, req.Notes)
		if err := store.UpdateAssignmentReturn(ctx, tx, as); err != nil {
			return err
		}
		if assignment, err = store.GetAssignment(ctx, tx, as.ID); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("assignment returned", "assignment_id", assignment.ID, "asset_id", asset.ID,
		"quantity", returned, "status", assignment.Status, "by", req.ReturnedBy)
	e := events.New(events.AssignmentReturned, asset.ID, req.ReturnedBy)
	e.AssignmentID = assignment.ID
	e.Quantity = returned
	e.StockLevel = stockLevel(asset)
	evs := []events.Event{e}
	if movement != nil {
		evs = append(evs, movedEvent(movement))
	}
	l.publish(ctx, withLowStock(evs, asset, req.ReturnedBy)...)
	return assignment, nil
}

// DeleteRequest force-closes an assignment.
type DeleteRequest struct {
	AssignmentID int64
	DeletedBy    string
	// Reason is required for bulk assignments.
	Reason string
}

// Delete force-closes an assignment, restoring whatever it still holds, and
// returns the restored asset. The assignment is kept for audit.
func (l *Ledger) Delete(ctx context.Context, req DeleteRequest) (*model.Asset, error) {
	req.Reason = strings.TrimSpace(req.Reason)

	var (
		asset    *model.Asset
		restored int
	)
	now := l.now()
	err := l.withTx(ctx, func(tx *sqlx.Tx) error {
		reg := registry{q: tx, now: now}
		as, a, err := lockAssignment(ctx, reg, req.AssignmentID)
		if err != nil {
			return err
		}
		if a.IsBulk() && req.Reason == "" {
			return errorf(KindValidation, "a reason is required to delete a bulk assignment")
		}

		if as.Open() {
			switch a.Variant.(type) {
			case *model.Unique:
				if err := reg.setIndividualStatus(ctx, a, model.StatusNotInUse); err != nil {
					return err
				}
				if err := reg.setKeeper(ctx, a, ""); err != nil {
					return err
				}
			case *model.Bulk:
				if err := reg.updateStock(ctx, a, as.QuantityRemaining); err != nil {
					return err
				}
			}
			restored = as.QuantityRemaining
		}

		if err := store.MarkAssignmentDeleted(ctx, tx, as.ID, req.DeletedBy, req.Reason, now); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("assignment deleted", "assignment_id", req.AssignmentID, "asset_id", asset.ID,
		"restored", restored, "by", req.DeletedBy)
	e := events.New(events.AssignmentDeleted, asset.ID, req.DeletedBy)
	e.AssignmentID = req.AssignmentID
	e.Quantity = restored
	e.StockLevel = stockLevel(asset)
	l.publish(ctx, withLowStock([]events.Event{e}, asset, req.DeletedBy)...)
	return asset, nil
}

// DeleteResult is the outcome of deleting one assignment in a batch.
type DeleteResult struct {
	AssignmentID int64        `json:"assignment_id"`
	Success      bool         `json:"success"`
	Kind         Kind         `json:"kind,omitempty"`
	Message      string       `json:"message,omitempty"`
	Asset        *model.Asset `json:"asset,omitempty"`
}

// BulkDeleteResult reports a batch deletion.
type BulkDeleteResult struct {
	Results   []DeleteResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// BulkDelete deletes each assignment in its own transaction. A failure for
// one ID does not affect the others.
func (l *Ledger) BulkDelete(ctx context.Context, ids []int64, deletedBy, reason string) (*BulkDeleteResult, error) {
	if len(ids) == 0 {
		return nil, errorf(KindValidation, "no assignments given")
	}

	out := &BulkDeleteResult{Results: make([]DeleteResult, 0, len(ids))}
	for _, id := range ids {
		r := DeleteResult{AssignmentID: id}
		asset, err := l.Delete(ctx, DeleteRequest{AssignmentID: id, DeletedBy: deletedBy, Reason: reason})
		if err != nil {
			r.Kind = KindOf(err)
			r.Message = PublicMessage(err)
			out.Failed++
		} else {
			r.Success = true
			r.Asset = asset
			out.Succeeded++
		}
		out.Results = append(out.Results, r)
	}

	slog.Info("bulk delete finished", "requested", len(ids), "succeeded", out.Succeeded, "failed", out.Failed, "by", deletedBy)
	return out, nil
}

// MoveAssignedRequest relocates a unique asset while it stays assigned.
type MoveAssignedRequest struct {
	AssetID      int64
	ToLocationID int64
	MovedBy      string
	Notes        string
}

// MoveAssignedResult describes a relocation of an assigned asset.
type MoveAssignedResult struct {
	MovementID   int64             `json:"movement_id"`
	Asset        *model.Asset      `json:"asset"`
	Assignment   *model.Assignment `json:"assignment"`
	FromLocation *model.Location   `json:"from_location"`
	ToLocation   *model.Location   `json:"to_location"`
}

// MoveAssignedAsset moves an actively assigned unique asset. The assignment
// itself is unchanged.
func (l *Ledger) MoveAssignedAsset(ctx context.Context, req MoveAssignedRequest) (*MoveAssignedResult, error) {
	to, err := l.locations.Describe(ctx, req.ToLocationID)
	if err != nil {
		return nil, internal("resolving location", err)
	}
	facts := moveFacts{toLocation: to != nil}
	if facts.mover, err = l.userExists(ctx, req.MovedBy); err != nil {
		return nil, err
	}

	var (
		result   *MoveAssignedResult
		movement *model.Movement
	)
	now := l.now()
	err = l.withTx(ctx, func(tx *sqlx.Tx) error {
		reg := registry{q: tx, now: now}
		a, err := reg.lock(ctx, req.AssetID)
		if err != nil {
			return err
		}
		if a.IsBulk() {
			return errorf(KindTypeMismatch, "asset %d is a bulk asset", a.ID)
		}
		active, err := store.GetActiveAssignment(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		if active == nil {
			return errorf(KindNotFound, "asset %d is not currently assigned", a.ID)
		}

		from := &model.Location{ID: active.LocationID, RegionName: active.RegionName, DepartmentName: active.DepartmentName}
		notes := req.Notes
		if notes == "" && to != nil {
			notes = fmt.Sprintf("Moved from %s to %s while assigned to %s",
				from.DisplayName(), to.DisplayName(), active.AssignedToName)
		}
		movement, err = recordMove(ctx, tx, now, &model.Movement{
			AssetID:        a.ID,
			FromLocationID: &from.ID,
			ToLocationID:   req.ToLocationID,
			MovedBy:        req.MovedBy,
			MovementType:   model.MovementTransfer,
			Quantity:       1,
			Notes:          notes,
		}, facts)
		if err != nil {
			return err
		}
		if err := reg.updateLocation(ctx, a, req.ToLocationID); err != nil {
			return err
		}

		assignment, err := store.GetAssignment(ctx, tx, active.ID)
		if err != nil {
			return err
		}
		result = &MoveAssignedResult{
			MovementID:   movement.ID,
			Asset:        a,
			Assignment:   assignment,
			FromLocation: from,
			ToLocation:   to,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("assigned asset moved", "asset_id", req.AssetID, "assignment_id", result.Assignment.ID,
		"from", result.FromLocation.ID, "to", req.ToLocationID, "by", req.MovedBy)
	l.publish(ctx, movedEvent(movement))
	return result, nil
}

// AssignmentFilter narrows ListAssignments.
type AssignmentFilter = store.AssignmentFilter

// GetAssignment returns an assignment by ID, including deleted ones.
func (l *Ledger) GetAssignment(ctx context.Context, id int64) (*model.Assignment, error) {
	as, err := store.GetAssignment(ctx, l.db, id)
	if err != nil {
		return nil, internal("getting assignment", err)
	}
	if as == nil {
		return nil, errorf(KindNotFound, "assignment %d not found", id)
	}
	return as, nil
}

// ListAssignments returns assignments matching f, newest first.
func (l *Ledger) ListAssignments(ctx context.Context, f AssignmentFilter) ([]*model.Assignment, error) {
	switch f.Status {
	case "", model.AssignmentActive, model.AssignmentPartiallyReturned, model.AssignmentReturned:
	default:
		return nil, errorf(KindValidation, "unknown status %q", f.Status)
	}
	list, err := store.ListAssignments(ctx, l.db, f)
	if err != nil {
		return nil, internal("listing assignments", err)
	}
	return list, nil
}

// lockAssignment locks the asset behind an assignment and returns both as of
// that point. Deleted assignments are not found.
func lockAssignment(ctx context.Context, reg registry, id int64) (*model.Assignment, *model.Asset, error) {
	as, err := store.GetAssignment(ctx, reg.q, id)
	if err != nil {
		return nil, nil, err
	}
	if as == nil || as.DeletedAt != nil {
		return nil, nil, errorf(KindNotFound, "assignment %d not found", id)
	}
	a, err := reg.lock(ctx, as.AssetID)
	if err != nil {
		return nil, nil, err
	}
	// Re-read under the lock; a concurrent operation may have changed it.
	if as, err = store.GetAssignment(ctx, reg.q, id); err != nil {
		return nil, nil, err
	}
	if as == nil || as.DeletedAt != nil {
		return nil, nil, errorf(KindNotFound, "assignment %d not found", id)
	}
	return as, a, nil
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return existing
	case existing == "":
		return note
	default:
		return existing + "\n" + note
	}
}
