// internal/app/features/calls/handler_test.go
package calls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	callstore "github.com/pulsemesh/pulsemesh/internal/app/store/calls"
	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"github.com/pulsemesh/pulsemesh/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeStore implements SessionStore against an in-memory map, returning the
// real store's sentinel errors so the handler's classification is exercised.
type fakeStore struct {
	calls     map[string]*models.CallSession
	createErr error
	created   []models.CallSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]*models.CallSession)}
}

func (f *fakeStore) Create(_ context.Context, initiatorID, customerID primitive.ObjectID) (models.CallSession, error) {
	if f.createErr != nil {
		return models.CallSession{}, f.createErr
	}
	call := models.CallSession{
		ID:          primitive.NewObjectID(),
		RoomID:      "call-" + primitive.NewObjectID().Hex(),
		InitiatorID: initiatorID,
		CustomerID:  customerID,
		Status:      models.CallStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	f.calls[call.RoomID] = &call
	f.created = append(f.created, call)
	return call, nil
}

func (f *fakeStore) GetByRoomID(_ context.Context, roomID string) (*models.CallSession, error) {
	call, ok := f.calls[roomID]
	if !ok {
		return nil, callstore.ErrNotFound
	}
	return call, nil
}

func (f *fakeStore) Transition(_ context.Context, roomID string, callerID primitive.ObjectID, target string) (*models.CallSession, error) {
	call, ok := f.calls[roomID]
	if !ok {
		return nil, callstore.ErrNotFound
	}
	if !call.IsParticipant(callerID) {
		return nil, callstore.ErrNotParticipant
	}
	if call.IsTerminal() {
		return nil, callstore.ErrIllegalTransition
	}
	now := time.Now().UTC()
	switch target {
	case models.CallStatusActive:
		if call.Status != models.CallStatusPending {
			return nil, callstore.ErrIllegalTransition
		}
		call.Status = models.CallStatusActive
		call.StartedAt = &now
	case models.CallStatusEnded:
		call.EndedAt = &now
		if call.StartedAt != nil {
			call.Status = models.CallStatusEnded
		} else {
			call.Status = models.CallStatusMissed
		}
	default:
		return nil, callstore.ErrIllegalTransition
	}
	return call, nil
}

type fakeSink struct {
	created []models.Notification
	err     error
}

func (f *fakeSink) Create(_ context.Context, n models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

type fakeBroadcaster struct {
	roomID  string
	endedBy string
	count   int
}

func (f *fakeBroadcaster) BroadcastSessionEnded(roomID, endedBy string) {
	f.roomID, f.endedBy = roomID, endedBy
	f.count++
}

func newTestHandler() (*Handler, *fakeStore, *fakeSink, *fakeBroadcaster) {
	store := newFakeStore()
	sink := &fakeSink{}
	hub := &fakeBroadcaster{}
	return NewHandler(store, sink, hub, 2, zap.NewNop()), store, sink, hub
}

func decodeErrKind(t *testing.T, body string) string {
	t.Helper()
	var resp struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return resp.Error.Kind
}

func TestCreateCallNotifiesCustomer(t *testing.T) {
	h, _, sink, _ := newTestHandler()
	customerID := primitive.NewObjectID()
	admin := testutil.AdminUser()

	req := httptest.NewRequest("POST", "/api/calls",
		strings.NewReader(`{"customerId":"`+customerID.Hex()+`"}`))
	req = testutil.WithUser(req, admin)
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var call models.CallSession
	if err := json.Unmarshal(rec.Body.Bytes(), &call); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if call.Status != models.CallStatusPending {
		t.Errorf("status = %q, want pending", call.Status)
	}
	if !strings.HasPrefix(call.RoomID, "call-") {
		t.Errorf("room id %q missing call- prefix", call.RoomID)
	}

	if len(sink.created) != 1 {
		t.Fatalf("got %d notifications, want 1", len(sink.created))
	}
	n := sink.created[0]
	if n.UserID != customerID {
		t.Errorf("notification addressed to %s, want customer", n.UserID.Hex())
	}
	if n.Type != models.NotificationIncomingCall {
		t.Errorf("type = %q", n.Type)
	}
	if n.Link != "/call/"+call.RoomID {
		t.Errorf("link = %q", n.Link)
	}
}

func TestCreateCallBadCustomerID(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := httptest.NewRequest("POST", "/api/calls", strings.NewReader(`{"customerId":"nope"}`))
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
	if kind := decodeErrKind(t, rec.Body.String()); kind != "invalid_input" {
		t.Errorf("kind = %q", kind)
	}
}

func TestCreateCallUnknownCustomer(t *testing.T) {
	h, store, sink, _ := newTestHandler()
	store.createErr = callstore.ErrInvalidCounterparty

	req := httptest.NewRequest("POST", "/api/calls",
		strings.NewReader(`{"customerId":"`+primitive.NewObjectID().Hex()+`"}`))
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(sink.created) != 0 {
		t.Errorf("notification sent for failed create")
	}
}

func TestCreateCallSurvivesNotificationFailure(t *testing.T) {
	h, _, sink, _ := newTestHandler()
	sink.err = errors.New("sink down")

	req := httptest.NewRequest("POST", "/api/calls",
		strings.NewReader(`{"customerId":"`+primitive.NewObjectID().Hex()+`"}`))
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201 despite notification failure", rec.Code)
	}
}

func TestGetCallParticipantOnly(t *testing.T) {
	h, store, _, _ := newTestHandler()
	adminID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()
	call, _ := store.Create(context.Background(), adminID, customerID)

	// A participant can read it.
	req := testutil.NewRequest("GET", "/api/calls/"+call.RoomID)
	req = testutil.WithChiURLParam(req, "roomID", call.RoomID)
	req = testutil.WithUser(req, testutil.UserWithID(customerID, "customer"))
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != 200 {
		t.Fatalf("participant: status = %d", rec.Code)
	}

	// A stranger cannot.
	req = testutil.NewRequest("GET", "/api/calls/"+call.RoomID)
	req = testutil.WithChiURLParam(req, "roomID", call.RoomID)
	req = testutil.WithUser(req, testutil.CustomerUser())
	rec = httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != 403 {
		t.Fatalf("stranger: status = %d", rec.Code)
	}
	if kind := decodeErrKind(t, rec.Body.String()); kind != "forbidden" {
		t.Errorf("kind = %q", kind)
	}
}

func TestGetCallNotFound(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := testutil.NewRequest("GET", "/api/calls/call-none")
	req = testutil.WithChiURLParam(req, "roomID", "call-none")
	req = testutil.WithUser(req, testutil.CustomerUser())
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)

	if rec.Code != 404 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAcceptCall(t *testing.T) {
	h, store, _, _ := newTestHandler()
	adminID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()
	call, _ := store.Create(context.Background(), adminID, customerID)

	req := httptest.NewRequest("PATCH", "/api/calls/"+call.RoomID,
		strings.NewReader(`{"action":"accept"}`))
	req = testutil.WithChiURLParam(req, "roomID", call.RoomID)
	req = testutil.WithUser(req, testutil.UserWithID(customerID, "customer"))
	rec := httptest.NewRecorder()
	h.ServePatch(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got models.CallSession
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != models.CallStatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("started_at not stamped")
	}
}

func TestPatchUnknownAction(t *testing.T) {
	h, store, _, _ := newTestHandler()
	call, _ := store.Create(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())

	req := httptest.NewRequest("PATCH", "/api/calls/"+call.RoomID,
		strings.NewReader(`{"action":"hangup"}`))
	req = testutil.WithChiURLParam(req, "roomID", call.RoomID)
	req = testutil.WithUser(req, testutil.UserWithID(call.CustomerID, "customer"))
	rec := httptest.NewRecorder()
	h.ServePatch(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEndCallBroadcasts(t *testing.T) {
	h, store, _, hub := newTestHandler()
	adminID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()
	call, _ := store.Create(context.Background(), adminID, customerID)
	store.Transition(context.Background(), call.RoomID, customerID, models.CallStatusActive)

	req := httptest.NewRequest("POST", "/api/calls/"+call.RoomID+"/end", nil)
	req = testutil.WithChiURLParam(req, "roomID", call.RoomID)
	req = testutil.WithUser(req, testutil.UserWithID(adminID, "admin"))
	rec := httptest.NewRecorder()
	h.ServeEnd(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got models.CallSession
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != models.CallStatusEnded {
		t.Errorf("status = %q, want ended", got.Status)
	}
	if hub.count != 1 || hub.roomID != call.RoomID || hub.endedBy != adminID.Hex() {
		t.Errorf("broadcast = %+v", hub)
	}
}

func TestEndUnansweredCallIsMissed(t *testing.T) {
	h, store, _, _ := newTestHandler()
	adminID := primitive.NewObjectID()
	call, _ := store.Create(context.Background(), adminID, primitive.NewObjectID())

	req := httptest.NewRequest("POST", "/api/calls/"+call.RoomID+"/end", nil)
	req = testutil.WithChiURLParam(req, "roomID", call.RoomID)
	req = testutil.WithUser(req, testutil.UserWithID(adminID, "admin"))
	rec := httptest.NewRecorder()
	h.ServeEnd(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var got models.CallSession
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != models.CallStatusMissed {
		t.Errorf("status = %q, want missed", got.Status)
	}
}

func TestEndEndedCallIsIllegal(t *testing.T) {
	h, store, _, hub := newTestHandler()
	adminID := primitive.NewObjectID()
	call, _ := store.Create(context.Background(), adminID, primitive.NewObjectID())
	store.Transition(context.Background(), call.RoomID, adminID, models.CallStatusEnded)

	req := httptest.NewRequest("POST", "/api/calls/"+call.RoomID+"/end", nil)
	req = testutil.WithChiURLParam(req, "roomID", call.RoomID)
	req = testutil.WithUser(req, testutil.UserWithID(adminID, "admin"))
	rec := httptest.NewRecorder()
	h.ServeEnd(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
	if kind := decodeErrKind(t, rec.Body.String()); kind != "illegal_transition" {
		t.Errorf("kind = %q", kind)
	}
	if hub.count != 0 {
		t.Error("broadcast fired for failed end")
	}
}
