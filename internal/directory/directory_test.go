package directory

import (
	"context"
	"testing"

	"github.com/erazemk/assetledger/internal/db"
	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

func TestSQLLocations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	locations := &SQLLocations{DB: database}

	loc, _ := store.CreateLocation(ctx, database, "North", "IT Store")

	ok, err := locations.Exists(ctx, loc.ID)
	if err != nil || !ok {
		t.Errorf("Exists(%d) = %v, %v; want true", loc.ID, ok, err)
	}
	ok, _ = locations.Exists(ctx, 999)
	if ok {
		t.Error("expected unknown location not to exist")
	}

	got, _ := locations.Describe(ctx, loc.ID)
	if got == nil || got.RegionName != "North" || got.DepartmentName != "IT Store" {
		t.Errorf("unexpected description: %v", got)
	}

	store.DeleteLocation(ctx, database, loc.ID)
	ok, _ = locations.Exists(ctx, loc.ID)
	if ok {
		t.Error("expected deleted location not to resolve")
	}
}

func TestSQLUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	users := &SQLUsers{DB: database}

	store.CreateUser(ctx, database, "P1", "Ana", "Novak", model.RoleUser)

	ok, err := users.Exists(ctx, "P1")
	if err != nil || !ok {
		t.Errorf("Exists(P1) = %v, %v; want true", ok, err)
	}
	for _, payroll := range []string{"", "P2"} {
		if ok, _ := users.Exists(ctx, payroll); ok {
			t.Errorf("expected %q not to exist", payroll)
		}
	}

	got, _ := users.Describe(ctx, "P1")
	if got == nil || got.FirstName != "Ana" || got.LastName != "Novak" {
		t.Errorf("unexpected description: %v", got)
	}

	store.DeleteUser(ctx, database, "P1")
	if ok, _ := users.Exists(ctx, "P1"); ok {
		t.Error("expected deleted user not to resolve")
	}
}
