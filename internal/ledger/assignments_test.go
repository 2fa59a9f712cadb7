package ledger

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/erazemk/assetledger/internal/events"
	"github.com/erazemk/assetledger/internal/model"
)

func TestBulkIssueRespectsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 10, 2)

	as := f.issue(t, a.ID, 4)
	if as.Status != model.AssignmentActive || as.QuantityRemaining != 4 {
		t.Errorf("unexpected assignment: %+v", as)
	}
	if got := f.stock(t, a.ID); got != 6 {
		t.Fatalf("expected stock 6, got %d", got)
	}

	_, err := f.ledger.Create(ctx, CreateRequest{AssetID: a.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 7})
	expectKind(t, err, KindInsufficientStock)
	if got := f.stock(t, a.ID); got != 6 {
		t.Errorf("expected stock to stay 6, got %d", got)
	}
}

func TestUniqueIssueOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-100")

	as := f.issue(t, a.ID, 1)
	if as.AssetName != a.Name || as.RegionName != "North" || as.AssignedToName != "Ana Kos" {
		t.Errorf("expected display fields, got %+v", as)
	}

	got, _ := f.ledger.GetAsset(ctx, a.ID)
	u, _ := got.Unique()
	if u.IndividualStatus != model.StatusInUse {
		t.Errorf("expected in_use, got %q", u.IndividualStatus)
	}
	if got.KeeperPayroll != f.worker {
		t.Errorf("expected keeper %q, got %q", f.worker, got.KeeperPayroll)
	}

	_, err := f.ledger.Create(ctx, CreateRequest{AssetID: a.ID, AssignedTo: f.manager, AssignedBy: f.manager, Quantity: 1})
	expectKind(t, err, KindAlreadyAssigned)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unique := f.uniqueAsset(t, "SN-1")
	bulk := f.bulkAsset(t, 5, 0)

	tests := []struct {
		name string
		req  CreateRequest
		want Kind
	}{
		{"unknown asset", CreateRequest{AssetID: 999, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1}, KindNotFound},
		{"unique quantity two", CreateRequest{AssetID: unique.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 2}, KindValidation},
		{"bulk quantity zero", CreateRequest{AssetID: bulk.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 0}, KindValidation},
		{"bad condition", CreateRequest{AssetID: bulk.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1, ConditionIssued: "shiny"}, KindValidation},
		{"unknown assignee", CreateRequest{AssetID: bulk.ID, AssignedTo: "X999", AssignedBy: f.manager, Quantity: 1}, KindInvalidUser},
		{"unknown assigner", CreateRequest{AssetID: bulk.ID, AssignedTo: f.worker, AssignedBy: "X999", Quantity: 1}, KindInvalidUser},
		{"unknown force location", CreateRequest{AssetID: unique.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1, ForceLocationID: idPtr(999)}, KindLocationNotFound},
		{"bulk force location", CreateRequest{AssetID: bulk.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1, ForceLocationID: idPtr(f.office.ID)}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Create(ctx, tt.req)
			expectKind(t, err, tt.want)
		})
	}

	if got := f.stock(t, bulk.ID); got != 5 {
		t.Errorf("failed creates must not change stock, got %d", got)
	}
	list, _ := f.ledger.ListAssignments(ctx, AssignmentFilter{})
	if len(list) != 0 {
		t.Errorf("failed creates must not insert assignments, got %d", len(list))
	}
}

func TestCreateRetiredAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-OLD")

	if _, err := f.ledger.SetAssetStatus(ctx, a.ID, model.StatusRetired, f.manager); err != nil {
		t.Fatalf("SetAssetStatus: %v", err)
	}
	_, err := f.ledger.Create(ctx, CreateRequest{AssetID: a.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1})
	expectKind(t, err, KindValidation)
}

func TestCreateWithForcedLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-2")

	_, err := f.ledger.Create(ctx, CreateRequest{
		AssetID: a.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1,
		ForceLocationID: idPtr(f.office.ID),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	history, _ := f.ledger.History(ctx, a.ID)
	if len(history) != 2 {
		t.Fatalf("expected initial and issue movements, got %d", len(history))
	}
	if history[0].MovementType != model.MovementIssue || history[0].ToLocationID != f.office.ID {
		t.Errorf("unexpected newest movement: %+v", history[0])
	}
	got, _ := f.ledger.GetAsset(ctx, a.ID)
	if got.LocationID != f.office.ID {
		t.Errorf("expected asset at office, got %d", got.LocationID)
	}

	// Forcing the current location is not a move.
	b := f.uniqueAsset(t, "SN-3")
	if _, err := f.ledger.Create(ctx, CreateRequest{
		AssetID: b.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1,
		ForceLocationID: idPtr(f.depot.ID),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := f.movementCount(t, b.ID); n != 1 {
		t.Errorf("expected only the initial movement, got %d", n)
	}
}

func TestPartialBulkReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 10, 0)
	as := f.issue(t, a.ID, 5)

	got, err := f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, Quantity: intPtr(2), ConditionReturned: model.ConditionFair})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if got.Status != model.AssignmentPartiallyReturned || got.QuantityRemaining != 3 {
		t.Errorf("unexpected assignment after partial return: %+v", got)
	}
	if got.DateReturned != nil || got.ConditionReturned != "" {
		t.Error("return date and condition are only set on full return")
	}
	if s := f.stock(t, a.ID); s != 7 {
		t.Errorf("expected stock 7, got %d", s)
	}

	got, err = f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, Quantity: intPtr(3), ConditionReturned: model.ConditionGood})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if got.Status != model.AssignmentReturned || got.QuantityRemaining != 0 {
		t.Errorf("unexpected assignment after full return: %+v", got)
	}
	if got.DateReturned == nil || got.ConditionReturned != model.ConditionGood {
		t.Errorf("expected return date and condition, got %+v", got)
	}
	if s := f.stock(t, a.ID); s != 10 {
		t.Errorf("expected stock 10, got %d", s)
	}
	if n := f.movementCount(t, a.ID); n != 1 {
		t.Errorf("bulk returns must not log movements, got %d", n)
	}
}

func TestReturnValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bulk := f.bulkAsset(t, 10, 0)
	bulkAs := f.issue(t, bulk.ID, 4)
	unique := f.uniqueAsset(t, "SN-R")
	uniqueAs := f.issue(t, unique.ID, 1)

	tests := []struct {
		name string
		req  ReturnRequest
		want Kind
	}{
		{"unknown assignment", ReturnRequest{AssignmentID: 999, ReturnedBy: f.manager}, KindNotFound},
		{"over return", ReturnRequest{AssignmentID: bulkAs.ID, ReturnedBy: f.manager, Quantity: intPtr(5)}, KindValidation},
		{"zero return", ReturnRequest{AssignmentID: bulkAs.ID, ReturnedBy: f.manager, Quantity: intPtr(0)}, KindValidation},
		{"negative return", ReturnRequest{AssignmentID: bulkAs.ID, ReturnedBy: f.manager, Quantity: intPtr(-1)}, KindValidation},
		{"unique quantity two", ReturnRequest{AssignmentID: uniqueAs.ID, ReturnedBy: f.manager, Quantity: intPtr(2)}, KindValidation},
		{"unknown returner", ReturnRequest{AssignmentID: bulkAs.ID, ReturnedBy: "X999"}, KindInvalidUser},
		{"bad condition", ReturnRequest{AssignmentID: bulkAs.ID, ReturnedBy: f.manager, ConditionReturned: "soggy"}, KindValidation},
		{"unknown return location", ReturnRequest{AssignmentID: uniqueAs.ID, ReturnedBy: f.manager, ReturnLocationID: idPtr(999)}, KindLocationNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Return(ctx, tt.req)
			expectKind(t, err, tt.want)
		})
	}

	if s := f.stock(t, bulk.ID); s != 6 {
		t.Errorf("failed returns must not change stock, got %d", s)
	}
}

func TestReturnDefaultsToRemaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 8, 0)
	as := f.issue(t, a.ID, 6)

	if _, err := f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, Quantity: intPtr(1)}); err != nil {
		t.Fatalf("Return: %v", err)
	}
	got, err := f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, Notes: "rest of box"})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if got.Status != model.AssignmentReturned || got.Notes != "rest of box" {
		t.Errorf("unexpected assignment: %+v", got)
	}

	_, err = f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager})
	expectKind(t, err, KindValidation)
}

func TestUniqueReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-U")
	as := f.issue(t, a.ID, 1)

	got, err := f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, ConditionReturned: model.ConditionPoor})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if got.Status != model.AssignmentReturned || got.QuantityRemaining != 0 || got.DateReturned == nil {
		t.Errorf("unexpected assignment: %+v", got)
	}

	asset, _ := f.ledger.GetAsset(ctx, a.ID)
	u, _ := asset.Unique()
	if u.IndividualStatus != model.StatusNotInUse || asset.KeeperPayroll != "" {
		t.Errorf("expected free asset, got status %q keeper %q", u.IndividualStatus, asset.KeeperPayroll)
	}
	if n := f.movementCount(t, a.ID); n != 1 {
		t.Errorf("return without relocation must not log a movement, got %d", n)
	}

	// The asset can be issued again.
	f.issue(t, a.ID, 1)
}

func TestUniqueReturnToOtherLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-L")
	as := f.issue(t, a.ID, 1)

	if _, err := f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, ReturnLocationID: idPtr(f.office.ID)}); err != nil {
		t.Fatalf("Return: %v", err)
	}

	history, _ := f.ledger.History(ctx, a.ID)
	if len(history) != 2 || history[0].MovementType != model.MovementReturn {
		t.Fatalf("expected a return movement, got %+v", history)
	}
	if *history[0].FromLocationID != f.depot.ID || history[0].ToLocationID != f.office.ID {
		t.Errorf("unexpected movement: %+v", history[0])
	}
}

func TestDeleteBulkRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 10, 0)
	as := f.issue(t, a.ID, 4)

	_, err := f.ledger.Delete(ctx, DeleteRequest{AssignmentID: as.ID, DeletedBy: f.manager, Reason: "   "})
	expectKind(t, err, KindValidation)
	if s := f.stock(t, a.ID); s != 6 {
		t.Fatalf("expected stock 6, got %d", s)
	}

	restored, err := f.ledger.Delete(ctx, DeleteRequest{AssignmentID: as.ID, DeletedBy: f.manager, Reason: "issued in error"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	b, _ := restored.Bulk()
	if b.CurrentStockLevel != 10 {
		t.Errorf("expected restored stock 10, got %d", b.CurrentStockLevel)
	}

	got, err := f.ledger.GetAssignment(ctx, as.ID)
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	if got.DeletedAt == nil || got.DeleteReason != "issued in error" || got.QuantityRemaining != 0 {
		t.Errorf("expected logically deleted assignment, got %+v", got)
	}

	active, _ := f.ledger.ListAssignments(ctx, AssignmentFilter{AssetID: a.ID})
	if len(active) != 0 {
		t.Errorf("deleted assignments are excluded from listings, got %d", len(active))
	}
	all, _ := f.ledger.ListAssignments(ctx, AssignmentFilter{AssetID: a.ID, IncludeDeleted: true})
	if len(all) != 1 {
		t.Errorf("expected deleted assignment with IncludeDeleted, got %d", len(all))
	}

	_, err = f.ledger.Delete(ctx, DeleteRequest{AssignmentID: as.ID, DeletedBy: f.manager, Reason: "again"})
	expectKind(t, err, KindNotFound)
}

func TestDeleteUniqueRestoresAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-D")
	as := f.issue(t, a.ID, 1)

	restored, err := f.ledger.Delete(ctx, DeleteRequest{AssignmentID: as.ID, DeletedBy: f.manager})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	u, _ := restored.Unique()
	if u.IndividualStatus != model.StatusNotInUse || restored.KeeperPayroll != "" {
		t.Errorf("expected restored asset, got %+v / %+v", restored, u)
	}
	f.issue(t, a.ID, 1)
}

func TestDeleteReturnedAssignmentLeavesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 10, 0)
	as := f.issue(t, a.ID, 3)
	if _, err := f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager}); err != nil {
		t.Fatalf("Return: %v", err)
	}

	if _, err := f.ledger.Delete(ctx, DeleteRequest{AssignmentID: as.ID, DeletedBy: f.manager, Reason: "cleanup"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s := f.stock(t, a.ID); s != 10 {
		t.Errorf("expected stock 10, got %d", s)
	}
}

func TestBulkDeletePartialSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bulk := f.bulkAsset(t, 10, 0)
	first := f.issue(t, bulk.ID, 2)
	second := f.issue(t, bulk.ID, 3)

	result, err := f.ledger.BulkDelete(ctx, []int64{first.ID, 999, second.ID}, f.manager, "audit correction")
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("expected 2 succeeded and 1 failed, got %+v", result)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected one result per id, got %d", len(result.Results))
	}
	if r := result.Results[1]; r.Success || r.Kind != KindNotFound || r.Message == "" {
		t.Errorf("unexpected failure entry: %+v", r)
	}
	if s := f.stock(t, bulk.ID); s != 10 {
		t.Errorf("expected stock 10, got %d", s)
	}

	_, err = f.ledger.BulkDelete(ctx, nil, f.manager, "x")
	expectKind(t, err, KindValidation)
}

func TestBulkDeleteWithoutReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bulk := f.bulkAsset(t, 10, 0)
	unique := f.uniqueAsset(t, "SN-B")
	bulkAs := f.issue(t, bulk.ID, 2)
	uniqueAs := f.issue(t, unique.ID, 1)

	result, err := f.ledger.BulkDelete(ctx, []int64{bulkAs.ID, uniqueAs.ID}, f.manager, "")
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if result.Results[0].Success || result.Results[0].Kind != KindValidation {
		t.Errorf("bulk assignment needs a reason: %+v", result.Results[0])
	}
	if !result.Results[1].Success {
		t.Errorf("unique assignment should delete without a reason: %+v", result.Results[1])
	}
}

func TestMoveAssignedAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-M")
	as := f.issue(t, a.ID, 1)
	f.recorder = &events.Recorder{}
	f.ledger.events = f.recorder

	result, err := f.ledger.MoveAssignedAsset(ctx, MoveAssignedRequest{AssetID: a.ID, ToLocationID: f.office.ID, MovedBy: f.manager})
	if err != nil {
		t.Fatalf("MoveAssignedAsset: %v", err)
	}
	if result.MovementID == 0 || result.Asset.LocationID != f.office.ID {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Assignment.ID != as.ID || result.Assignment.Status != model.AssignmentActive {
		t.Errorf("assignment must be unchanged, got %+v", result.Assignment)
	}
	if result.Assignment.DepartmentName != "Finance" {
		t.Errorf("expected assignment to show new location, got %q", result.Assignment.DepartmentName)
	}
	if result.FromLocation.DisplayName() != "North - Main Store" || result.ToLocation.DisplayName() != "North - Finance" {
		t.Errorf("unexpected locations: %+v -> %+v", result.FromLocation, result.ToLocation)
	}

	history, _ := f.ledger.History(ctx, a.ID)
	m := history[0]
	if m.MovementType != model.MovementTransfer || m.Quantity != 1 {
		t.Errorf("unexpected movement: %+v", m)
	}
	if !strings.Contains(m.Notes, "North - Main Store") || !strings.Contains(m.Notes, "North - Finance") {
		t.Errorf("expected default note naming both locations, got %q", m.Notes)
	}
	if types := f.recorder.Types(); len(types) != 1 || types[0] != events.AssetMoved {
		t.Errorf("unexpected events: %v", types)
	}
}

func TestMoveAssignedAssetRejectsSameLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-S")
	f.issue(t, a.ID, 1)

	_, err := f.ledger.MoveAssignedAsset(ctx, MoveAssignedRequest{AssetID: a.ID, ToLocationID: f.depot.ID, MovedBy: f.manager})
	expectKind(t, err, KindSameLocation)
	if n := f.movementCount(t, a.ID); n != 1 {
		t.Errorf("expected no new movement, got %d movements", n)
	}
}

func TestMoveAssignedAssetErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bulk := f.bulkAsset(t, 5, 0)
	f.issue(t, bulk.ID, 1)
	free := f.uniqueAsset(t, "SN-F")
	assigned := f.uniqueAsset(t, "SN-A")
	f.issue(t, assigned.ID, 1)

	tests := []struct {
		name string
		req  MoveAssignedRequest
		want Kind
	}{
		{"unknown asset", MoveAssignedRequest{AssetID: 999, ToLocationID: f.office.ID, MovedBy: f.manager}, KindNotFound},
		{"bulk asset", MoveAssignedRequest{AssetID: bulk.ID, ToLocationID: f.office.ID, MovedBy: f.manager}, KindTypeMismatch},
		{"not assigned", MoveAssignedRequest{AssetID: free.ID, ToLocationID: f.office.ID, MovedBy: f.manager}, KindNotFound},
		{"unknown location", MoveAssignedRequest{AssetID: assigned.ID, ToLocationID: 999, MovedBy: f.manager}, KindLocationNotFound},
		{"unknown mover", MoveAssignedRequest{AssetID: assigned.ID, ToLocationID: f.office.ID, MovedBy: "X999"}, KindInvalidUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.MoveAssignedAsset(ctx, tt.req)
			expectKind(t, err, tt.want)
		})
	}
}

func TestBulkRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 12, 3)

	for _, q := range []int{1, 5, 12} {
		before := f.stock(t, a.ID)
		as := f.issue(t, a.ID, q)
		got, err := f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, Quantity: intPtr(q)})
		if err != nil {
			t.Fatalf("Return(%d): %v", q, err)
		}
		if got.Status != model.AssignmentReturned {
			t.Errorf("expected returned, got %q", got.Status)
		}
		if after := f.stock(t, a.ID); after != before {
			t.Errorf("round trip of %d: stock %d -> %d", q, before, after)
		}
	}
}

func TestStockConservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const initial = 20
	a := f.bulkAsset(t, initial, 2)

	first := f.issue(t, a.ID, 6)
	second := f.issue(t, a.ID, 4)
	f.ledger.Return(ctx, ReturnRequest{AssignmentID: first.ID, ReturnedBy: f.manager, Quantity: intPtr(2)})
	if _, _, err := f.ledger.Restock(ctx, RestockRequest{AssetID: a.ID, Quantity: 5, RestockedBy: f.manager}); err != nil {
		t.Fatalf("Restock: %v", err)
	}
	third := f.issue(t, a.ID, 7)
	f.ledger.Delete(ctx, DeleteRequest{AssignmentID: second.ID, DeletedBy: f.manager, Reason: "lost paperwork"})
	f.ledger.Return(ctx, ReturnRequest{AssignmentID: third.ID, ReturnedBy: f.manager, Quantity: intPtr(7)})
	_, err := f.ledger.Create(ctx, CreateRequest{AssetID: a.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 100})
	expectKind(t, err, KindInsufficientStock)

	report, err := f.ledger.Report(ctx, a.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	open, _ := f.ledger.ListAssignments(ctx, AssignmentFilter{AssetID: a.ID})
	outstanding := 0
	for _, as := range open {
		if as.Open() {
			outstanding += as.QuantityRemaining
		}
	}
	want := initial + report.TotalRestockedToDate - outstanding
	if report.CurrentStockLevel != want {
		t.Errorf("stock %d, want %d (outstanding %d)", report.CurrentStockLevel, want, outstanding)
	}
	if outstanding != 4 {
		t.Errorf("expected 4 outstanding, got %d", outstanding)
	}
}

func TestConcurrentUniqueIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.uniqueAsset(t, "SN-RACE")

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Create(ctx, CreateRequest{AssetID: a.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 1})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch KindOf(err) {
		case "":
			succeeded++
		case KindAlreadyAssigned:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one successful issue, got %d", succeeded)
	}
	active, _ := f.ledger.ListAssignments(ctx, AssignmentFilter{AssetID: a.ID, Status: model.AssignmentActive})
	if len(active) != 1 {
		t.Errorf("expected one active assignment, got %d", len(active))
	}
}

func TestConcurrentBulkIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 10, 0)

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Create(ctx, CreateRequest{AssetID: a.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 3})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch KindOf(err) {
		case "":
			succeeded++
		case KindInsufficientStock:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 3 {
		t.Errorf("expected 3 successful issues, got %d", succeeded)
	}
	if s := f.stock(t, a.ID); s != 1 {
		t.Errorf("expected stock 1, got %d", s)
	}
}

func TestAssignmentEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.bulkAsset(t, 5, 2)
	f.recorder = &events.Recorder{}
	f.ledger.events = f.recorder

	as := f.issue(t, a.ID, 3)
	f.ledger.Return(ctx, ReturnRequest{AssignmentID: as.ID, ReturnedBy: f.manager, Quantity: intPtr(1)})
	f.ledger.Create(ctx, CreateRequest{AssetID: a.ID, AssignedTo: f.worker, AssignedBy: f.manager, Quantity: 50})

	want := []string{events.AssignmentCreated, events.StockLow, events.AssignmentReturned}
	got := f.recorder.Types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	evs := f.recorder.Events()
	if evs[0].AssignmentID != as.ID || evs[0].Quantity != 3 || *evs[0].StockLevel != 2 {
		t.Errorf("unexpected created event: %+v", evs[0])
	}
}
