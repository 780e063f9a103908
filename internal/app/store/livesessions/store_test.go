// internal/app/store/livesessions/store_test.go
package livestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"github.com/pulsemesh/pulsemesh/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func seed(t *testing.T, ctx context.Context, db *mongo.Database) (host models.User, c1, c2 models.User) {
	t.Helper()
	fx := testutil.NewFixtures(t, db)
	host = fx.CreateAdmin(ctx, "Coach Dana", "dana@test.com")
	c1 = fx.CreateCustomer(ctx, "Sam", "sam@test.com")
	c2 = fx.CreateCustomer(ctx, "Riley", "riley@test.com")
	return host, c1, c2
}

func TestCreateImmediateSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, c2 := seed(t, ctx, db)

	store := New(db)
	sess, err := store.Create(ctx, host.ID, "Morning HIIT", "Bring water",
		[]primitive.ObjectID{c1.ID, c2.ID, c1.ID}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Status != models.LiveStatusLive {
		t.Errorf("status = %q, want live", sess.Status)
	}
	if sess.StartedAt == nil {
		t.Error("started_at not stamped for immediate session")
	}
	// Duplicate invitee collapsed.
	if len(sess.InvitedCustomers) != 2 {
		t.Errorf("invited = %d, want 2", len(sess.InvitedCustomers))
	}
	if len(sess.JoinedCustomers) != 0 {
		t.Errorf("joined = %d, want 0", len(sess.JoinedCustomers))
	}
}

func TestCreateScheduledSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, _ := seed(t, ctx, db)

	store := New(db)
	when := time.Now().Add(48 * time.Hour).UTC()
	sess, err := store.Create(ctx, host.ID, "Evening yoga", "", []primitive.ObjectID{c1.ID}, &when)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Status != models.LiveStatusScheduled {
		t.Errorf("status = %q, want scheduled", sess.Status)
	}
	if sess.StartedAt != nil {
		t.Error("started_at stamped for scheduled session")
	}
}

func TestCreateRejectsBadInvitees(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, _ := seed(t, ctx, db)

	store := New(db)

	// One valid, one nonexistent: all-or-nothing.
	if _, err := store.Create(ctx, host.ID, "X", "", []primitive.ObjectID{c1.ID, primitive.NewObjectID()}, nil); !errors.Is(err, ErrInvalidInvitee) {
		t.Errorf("mixed invitees: err = %v, want ErrInvalidInvitee", err)
	}
	// Admin as invitee.
	if _, err := store.Create(ctx, host.ID, "X", "", []primitive.ObjectID{host.ID}, nil); !errors.Is(err, ErrInvalidInvitee) {
		t.Errorf("admin invitee: err = %v, want ErrInvalidInvitee", err)
	}
	// Empty list.
	if _, err := store.Create(ctx, host.ID, "X", "", nil, nil); !errors.Is(err, ErrInvalidInvitee) {
		t.Errorf("no invitees: err = %v, want ErrInvalidInvitee", err)
	}
}

func TestStartScheduledSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, _ := seed(t, ctx, db)

	store := New(db)
	when := time.Now().Add(time.Hour).UTC()
	sess, _ := store.Create(ctx, host.ID, "Yoga", "", []primitive.ObjectID{c1.ID}, &when)

	// Invitee cannot start.
	if _, err := store.Transition(ctx, sess.SessionID, c1.ID, ActionStart); !errors.Is(err, ErrNotHost) {
		t.Errorf("invitee start: err = %v, want ErrNotHost", err)
	}

	started, err := store.Transition(ctx, sess.SessionID, host.ID, ActionStart)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != models.LiveStatusLive || started.StartedAt == nil {
		t.Fatalf("after start: %+v", started)
	}
}

func TestJoinAndLeave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, c2 := seed(t, ctx, db)

	store := New(db)
	sess, _ := store.Create(ctx, host.ID, "HIIT", "", []primitive.ObjectID{c1.ID}, nil)

	// Join is idempotent.
	store.Transition(ctx, sess.SessionID, c1.ID, ActionJoin)
	after, err := store.Transition(ctx, sess.SessionID, c1.ID, ActionJoin)
	if err != nil {
		t.Fatalf("double join: %v", err)
	}
	if len(after.JoinedCustomers) != 1 {
		t.Errorf("joined = %d after double join, want 1", len(after.JoinedCustomers))
	}
	// Join never changes the status.
	if after.Status != models.LiveStatusLive {
		t.Errorf("status = %q after join", after.Status)
	}

	// Uninvited customer cannot join.
	if _, err := store.Transition(ctx, sess.SessionID, c2.ID, ActionJoin); !errors.Is(err, ErrNotInvited) {
		t.Errorf("uninvited join: err = %v, want ErrNotInvited", err)
	}

	after, err = store.Transition(ctx, sess.SessionID, c1.ID, ActionLeave)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(after.JoinedCustomers) != 0 {
		t.Errorf("joined = %d after leave, want 0", len(after.JoinedCustomers))
	}
	if after.Status != models.LiveStatusLive {
		t.Errorf("status = %q after leave, want live", after.Status)
	}
}

func TestEndSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, _ := seed(t, ctx, db)

	store := New(db)
	sess, _ := store.Create(ctx, host.ID, "HIIT", "", []primitive.ObjectID{c1.ID}, nil)

	// Only the host may end.
	if _, err := store.Transition(ctx, sess.SessionID, c1.ID, ActionEnd); !errors.Is(err, ErrNotHost) {
		t.Errorf("invitee end: err = %v, want ErrNotHost", err)
	}

	ended, err := store.Transition(ctx, sess.SessionID, host.ID, ActionEnd)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != models.LiveStatusEnded || ended.EndedAt == nil {
		t.Fatalf("after end: %+v", ended)
	}

	// Ended is terminal for every action.
	for _, action := range []string{ActionStart, ActionJoin, ActionLeave, ActionEnd} {
		if _, err := store.Transition(ctx, sess.SessionID, host.ID, action); !errors.Is(err, ErrSessionEnded) {
			t.Errorf("%s after end: err = %v, want ErrSessionEnded", action, err)
		}
	}
}

func TestUnknownAction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, _ := seed(t, ctx, db)

	store := New(db)
	sess, _ := store.Create(ctx, host.ID, "HIIT", "", []primitive.ObjectID{c1.ID}, nil)

	if _, err := store.Transition(ctx, sess.SessionID, host.ID, "pause"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}

func TestCanJoin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	host, c1, c2 := seed(t, ctx, db)

	store := New(db)
	sess, _ := store.Create(ctx, host.ID, "HIIT", "", []primitive.ObjectID{c1.ID}, nil)

	d, err := store.CanJoin(ctx, sess.SessionID, c1.ID)
	if err != nil || !d.Allowed {
		t.Fatalf("invitee: decision = %+v, err = %v", d, err)
	}
	d, _ = store.CanJoin(ctx, sess.SessionID, host.ID)
	if !d.Allowed {
		t.Errorf("host: decision = %+v", d)
	}
	d, _ = store.CanJoin(ctx, sess.SessionID, c2.ID)
	if d.Allowed || d.Reason != "not-invited" {
		t.Errorf("stranger: decision = %+v", d)
	}

	store.Transition(ctx, sess.SessionID, host.ID, ActionEnd)
	d, _ = store.CanJoin(ctx, sess.SessionID, c1.ID)
	if d.Allowed || d.Reason != "ended" {
		t.Errorf("after end: decision = %+v", d)
	}

	if _, err := store.CanJoin(ctx, "nope", c1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session: err = %v, want ErrNotFound", err)
	}
}
