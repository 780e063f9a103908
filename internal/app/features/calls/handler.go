// internal/app/features/calls/handler.go
package calls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	callstore "github.com/pulsemesh/pulsemesh/internal/app/store/calls"
	"github.com/pulsemesh/pulsemesh/internal/app/system/apierr"
	"github.com/pulsemesh/pulsemesh/internal/app/system/authz"
	"github.com/pulsemesh/pulsemesh/internal/app/system/notify"
	"github.com/pulsemesh/pulsemesh/internal/app/system/timeouts"
	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler implements the 1:1 call lifecycle endpoints.
type Handler struct {
	Calls             SessionStore
	Notifications     notify.Sink
	Hub               Broadcaster
	NotifyConcurrency int
	Log               *zap.Logger
}

// NewHandler creates a new calls handler.
func NewHandler(calls SessionStore, notifications notify.Sink, hub Broadcaster, notifyConcurrency int, logger *zap.Logger) *Handler {
	return &Handler{
		Calls:             calls,
		Notifications:     notifications,
		Hub:               hub,
		NotifyConcurrency: notifyConcurrency,
		Log:               logger,
	}
}

// ServeCreate handles POST /api/calls.
// Creates a pending call session and notifies the customer. The notification
// is best-effort: a failed send never rolls back the created call.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	_, callerName, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteKind(w, apierr.KindInvalidInput, "invalid JSON body")
		return
	}
	customerID, err := primitive.ObjectIDFromHex(req.CustomerID)
	if err != nil {
		apierr.WriteKind(w, apierr.KindInvalidInput, "customerId must be a valid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	call, err := h.Calls.Create(ctx, callerID, customerID)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}

	h.Log.Info("call created",
		zap.String("room_id", call.RoomID),
		zap.String("initiator_id", callerID.Hex()),
		zap.String("customer_id", customerID.Hex()))

	res := notify.FanOut(ctx, h.Notifications, []models.Notification{{
		UserID:  call.CustomerID,
		Type:    models.NotificationIncomingCall,
		Title:   "Incoming call",
		Message: callerName + " is calling you",
		Link:    "/call/" + call.RoomID,
		RoomID:  call.RoomID,
	}}, h.NotifyConcurrency, h.Log)
	if res.Failed > 0 {
		h.Log.Warn("incoming call notification not delivered",
			zap.String("room_id", call.RoomID))
	}

	respondJSON(w, http.StatusCreated, call)
}

// ServeGet handles GET /api/calls/{roomID}.
// Only the two participants may read a call session.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	roomID := chi.URLParam(r, "roomID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	call, err := h.Calls.GetByRoomID(ctx, roomID)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}
	if !call.IsParticipant(callerID) {
		apierr.WriteKind(w, apierr.KindForbidden, "not a participant of this call")
		return
	}
	respondJSON(w, http.StatusOK, call)
}

// ServePatch handles PATCH /api/calls/{roomID}.
// The only supported action is "accept", which answers a pending call.
func (h *Handler) ServePatch(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	roomID := chi.URLParam(r, "roomID")

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteKind(w, apierr.KindInvalidInput, "invalid JSON body")
		return
	}
	if req.Action != "accept" {
		apierr.WriteKind(w, apierr.KindInvalidInput, "unknown action")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	call, err := h.Calls.Transition(ctx, roomID, callerID, models.CallStatusActive)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}
	respondJSON(w, http.StatusOK, call)
}

// ServeEnd handles POST /api/calls/{roomID}/end.
// Ends the call and tells everyone still in the room that the session is
// over. A call that was never answered is recorded as missed.
func (h *Handler) ServeEnd(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	roomID := chi.URLParam(r, "roomID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	call, err := h.Calls.Transition(ctx, roomID, callerID, models.CallStatusEnded)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}

	h.Hub.BroadcastSessionEnded(roomID, callerID.Hex())
	h.Log.Info("call ended",
		zap.String("room_id", roomID),
		zap.String("status", call.Status),
		zap.Int64("duration_secs", call.DurationSecs))

	respondJSON(w, http.StatusOK, call)
}

// classify maps store errors to the API error taxonomy. Unrecognized errors
// pass through and render as internal.
func classify(err error) error {
	switch {
	case errors.Is(err, callstore.ErrNotFound):
		return apierr.New(apierr.KindNotFound, "call not found")
	case errors.Is(err, callstore.ErrInvalidCounterparty):
		return apierr.New(apierr.KindInvalidInput, "customer not found")
	case errors.Is(err, callstore.ErrNotParticipant):
		return apierr.New(apierr.KindForbidden, "not a participant of this call")
	case errors.Is(err, callstore.ErrIllegalTransition):
		return apierr.New(apierr.KindIllegalTransition, "call cannot move to that status")
	default:
		return err
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
