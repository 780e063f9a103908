// internal/app/store/users/userstore_test.go
package userstore

import (
	"errors"
	"testing"

	"github.com/pulsemesh/pulsemesh/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestGetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx, "Coach Dana", "dana@test.com")

	store := New(db)
	got, err := store.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FullName != "Coach Dana" || got.Role != "admin" {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing user: err = %v, want ErrNoDocuments", err)
	}
}

func TestGetCustomerByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx, "Coach Dana", "dana@test.com")
	customer := fx.CreateCustomer(ctx, "Sam", "sam@test.com")

	store := New(db)
	if _, err := store.GetCustomerByID(ctx, customer.ID); err != nil {
		t.Fatalf("customer lookup: %v", err)
	}
	// Role filter: an admin is not a customer.
	if _, err := store.GetCustomerByID(ctx, admin.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("admin lookup: err = %v, want ErrNoDocuments", err)
	}
}

func TestCountCustomersByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx, "Coach Dana", "dana@test.com")
	c1 := fx.CreateCustomer(ctx, "Sam", "sam@test.com")
	c2 := fx.CreateCustomer(ctx, "Riley", "riley@test.com")

	store := New(db)
	count, err := store.CountCustomersByIDs(ctx, []primitive.ObjectID{c1.ID, c2.ID, admin.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("CountCustomersByIDs: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestGetByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	c1 := fx.CreateCustomer(ctx, "Sam", "sam@test.com")
	c2 := fx.CreateCustomer(ctx, "Riley", "riley@test.com")

	store := New(db)
	users, err := store.GetByIDs(ctx, []primitive.ObjectID{c1.ID, c2.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d users, want 2", len(users))
	}
}
