package universitystore_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	universitystore "github.com/dalemusser/admitportal/internal/app/store/universities"
	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/dalemusser/admitportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := universitystore.New(ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.University{Name: " École Polytechnique ", Code: "ep"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if created.Code != "EP" {
		t.Errorf("Code = %q, want EP", created.Code)
	}
	if created.NameCI != "ecole polytechnique" {
		t.Errorf("NameCI = %q", created.NameCI)
	}
	if !created.IsActive {
		t.Error("expected new university to be active")
	}

	if _, err := store.Create(ctx, models.University{Name: "Other", Code: "EP"}); !errors.Is(err, universitystore.ErrDuplicateCode) {
		t.Errorf("expected ErrDuplicateCode, got %v", err)
	}
	if _, err := store.Create(ctx, models.University{Name: "No Code"}); err == nil {
		t.Error("expected error for missing code")
	}
}

func TestStore_GetByIDAndCode(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := universitystore.New(ds)
	fixtures := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUniversity(ctx, "Northgate", "NGU")

	got, err := store.GetByID(ctx, u.ID)
	if err != nil || got.Name != "Northgate" {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	got, err = store.GetByCode(ctx, "ngu")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetByCode = %+v, %v", got, err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected docstore.ErrNotFound, got %v", err)
	}
	if _, err := store.GetByCode(ctx, "zzz"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected docstore.ErrNotFound, got %v", err)
	}
}

func TestStore_ListActive(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := universitystore.New(ds)
	fixtures := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUniversity(ctx, "Zeta", "ZU")
	alpha := fixtures.CreateUniversity(ctx, "alpha", "AU")
	gone := fixtures.CreateUniversity(ctx, "Beta", "BU")
	fixtures.DeactivateUniversity(ctx, gone.ID)

	page, err := store.ListActive(ctx, docstore.PageRequest{})
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if page.Pagination.Total != 2 {
		t.Fatalf("Total = %d, want 2", page.Pagination.Total)
	}
	if page.Data[0].ID != alpha.ID {
		t.Errorf("first = %q, want alpha (case-insensitive order)", page.Data[0].Name)
	}
}
