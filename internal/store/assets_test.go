package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/db"
	"github.com/erazemk/assetledger/internal/model"
)

func seedUniqueAsset(t *testing.T, q sqlx.ExtContext, name, serial string, locationID int64) *model.Asset {
	t.Helper()
	id, err := CreateAsset(context.Background(), q, &model.Asset{
		Name:       name,
		LocationID: locationID,
		CreatedAt:  time.Now().UTC(),
		Variant:    &model.Unique{SerialNumber: serial, IndividualStatus: model.StatusNotInUse},
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	a, err := GetAsset(context.Background(), q, id)
	if err != nil || a == nil {
		t.Fatalf("GetAsset: %v", err)
	}
	return a
}

func seedBulkAsset(t *testing.T, q sqlx.ExtContext, name string, stock, threshold int, locationID int64) *model.Asset {
	t.Helper()
	id, err := CreateAsset(context.Background(), q, &model.Asset{
		Name:       name,
		LocationID: locationID,
		CreatedAt:  time.Now().UTC(),
		Variant:    &model.Bulk{CurrentStockLevel: stock, MinimumThreshold: threshold},
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	a, err := GetAsset(context.Background(), q, id)
	if err != nil || a == nil {
		t.Fatalf("GetAsset: %v", err)
	}
	return a
}

func TestCreateAndGetAssetVariants(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")

	laptop := seedUniqueAsset(t, database, "Laptop", "SN-1", loc.ID)
	u, ok := laptop.Unique()
	if !ok {
		t.Fatal("expected unique variant")
	}
	if u.SerialNumber != "SN-1" || u.IndividualStatus != model.StatusNotInUse {
		t.Errorf("unexpected unique fields: %+v", u)
	}

	toner := seedBulkAsset(t, database, "Toner", 10, 2, loc.ID)
	b, ok := toner.Bulk()
	if !ok {
		t.Fatal("expected bulk variant")
	}
	if b.CurrentStockLevel != 10 || b.MinimumThreshold != 2 || b.LastRestocked != nil {
		t.Errorf("unexpected bulk fields: %+v", b)
	}

	missing, err := GetAsset(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing asset")
	}
}

func TestMixedVariantRowRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")

	_, err := database.ExecContext(ctx,
		`INSERT INTO assets (name, is_bulk, serial_number, individual_status, current_stock_level,
		                     minimum_threshold, location_id, created_at, updated_at)
		 VALUES ('Broken', 0, 'SN-X', 'not_in_use', 5, 1, ?, ?, ?)`,
		loc.ID, time.Now().UTC(), time.Now().UTC(),
	)
	if err == nil {
		t.Error("expected check constraint to reject a unique asset with stock fields")
	}
}

func TestDuplicateSerialRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")

	seedUniqueAsset(t, database, "Laptop", "SN-1", loc.ID)
	exists, err := SerialNumberExists(ctx, database, "SN-1")
	if err != nil || !exists {
		t.Fatalf("SerialNumberExists = %v, %v; want true", exists, err)
	}

	_, err = CreateAsset(ctx, database, &model.Asset{
		Name: "Other", LocationID: loc.ID, CreatedAt: time.Now().UTC(),
		Variant: &model.Unique{SerialNumber: "SN-1", IndividualStatus: model.StatusNotInUse},
	})
	if err == nil {
		t.Error("expected error for duplicate serial number")
	}
}

func TestAdjustStockNeverNegative(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")
	toner := seedBulkAsset(t, database, "Toner", 3, 1, loc.ID)

	ok, err := AdjustStock(ctx, database, toner.ID, -5, time.Now().UTC())
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if ok {
		t.Error("expected adjustment below zero to be refused")
	}

	ok, _ = AdjustStock(ctx, database, toner.ID, -3, time.Now().UTC())
	if !ok {
		t.Error("expected adjustment to exactly zero to succeed")
	}

	got, _ := GetAsset(ctx, database, toner.ID)
	b, _ := got.Bulk()
	if b.CurrentStockLevel != 0 {
		t.Errorf("expected stock 0, got %d", b.CurrentStockLevel)
	}
}

func TestAdjustStockIgnoresUniqueAssets(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")
	laptop := seedUniqueAsset(t, database, "Laptop", "SN-1", loc.ID)

	ok, err := AdjustStock(ctx, database, laptop.ID, 1, time.Now().UTC())
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if ok {
		t.Error("expected stock adjustment on a unique asset to be refused")
	}
}

func TestLockAsset(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")
	laptop := seedUniqueAsset(t, database, "Laptop", "SN-1", loc.ID)

	if ok, err := LockAsset(ctx, database, laptop.ID); err != nil || !ok {
		t.Errorf("LockAsset(existing) = %v, %v; want true", ok, err)
	}
	if ok, err := LockAsset(ctx, database, 999); err != nil || ok {
		t.Errorf("LockAsset(missing) = %v, %v; want false", ok, err)
	}
}

func TestListAssetsAndLowStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")

	seedUniqueAsset(t, database, "Laptop", "SN-1", loc.ID)
	seedBulkAsset(t, database, "Paper", 50, 10, loc.ID)
	seedBulkAsset(t, database, "Toner", 2, 2, loc.ID)

	all, _ := ListAssets(ctx, database, "")
	if len(all) != 3 {
		t.Errorf("expected 3 assets, got %d", len(all))
	}
	bulk, _ := ListAssets(ctx, database, KindBulk)
	if len(bulk) != 2 {
		t.Errorf("expected 2 bulk assets, got %d", len(bulk))
	}
	unique, _ := ListAssets(ctx, database, KindUnique)
	if len(unique) != 1 {
		t.Errorf("expected 1 unique asset, got %d", len(unique))
	}

	low, err := ListLowStockAssets(ctx, database)
	if err != nil {
		t.Fatalf("ListLowStockAssets: %v", err)
	}
	if len(low) != 1 || low[0].Name != "Toner" {
		t.Errorf("expected only Toner to be low, got %v", low)
	}
}

func TestSetKeeperAndStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	loc, _ := CreateLocation(ctx, database, "North", "IT Store")
	CreateUser(ctx, database, "P1", "Ana", "Novak", model.RoleUser)
	laptop := seedUniqueAsset(t, database, "Laptop", "SN-1", loc.ID)

	now := time.Now().UTC()
	SetKeeper(ctx, database, laptop.ID, "P1", now)
	SetIndividualStatus(ctx, database, laptop.ID, model.StatusInUse, now)

	got, _ := GetAsset(ctx, database, laptop.ID)
	u, _ := got.Unique()
	if got.KeeperPayroll != "P1" || u.IndividualStatus != model.StatusInUse {
		t.Errorf("expected keeper P1 and in_use, got %q and %q", got.KeeperPayroll, u.IndividualStatus)
	}

	SetKeeper(ctx, database, laptop.ID, "", now)
	got, _ = GetAsset(ctx, database, laptop.ID)
	if got.KeeperPayroll != "" {
		t.Errorf("expected keeper cleared, got %q", got.KeeperPayroll)
	}
}
