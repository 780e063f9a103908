// internal/app/features/livesessions/handler.go
package livesessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	livestore "github.com/pulsemesh/pulsemesh/internal/app/store/livesessions"
	"github.com/pulsemesh/pulsemesh/internal/app/system/apierr"
	"github.com/pulsemesh/pulsemesh/internal/app/system/authz"
	"github.com/pulsemesh/pulsemesh/internal/app/system/notify"
	"github.com/pulsemesh/pulsemesh/internal/app/system/timeouts"
	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler implements the 1:many live session lifecycle endpoints.
type Handler struct {
	Sessions          SessionStore
	Users             UserDirectory
	Notifications     notify.Sink
	Hub               Broadcaster
	NotifyConcurrency int
	Log               *zap.Logger

	sanitizer *bluemonday.Policy
}

// NewHandler creates a new live sessions handler.
func NewHandler(sessions SessionStore, users UserDirectory, notifications notify.Sink, hub Broadcaster, notifyConcurrency int, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions:          sessions,
		Users:             users,
		Notifications:     notifications,
		Hub:               hub,
		NotifyConcurrency: notifyConcurrency,
		Log:               logger,
		sanitizer:         bluemonday.StrictPolicy(),
	}
}

// ServeCreate handles POST /api/live-sessions.
// Creates the session and invites every listed customer with one
// "session_invite" notification each. Invitations are best-effort; the
// session exists regardless of how many sends landed.
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
	title := h.sanitizer.Sanitize(req.Title)
	if title == "" {
		apierr.WriteKind(w, apierr.KindInvalidInput, "title is required")
		return
	}
	if len(req.CustomerIDs) == 0 {
		apierr.WriteKind(w, apierr.KindInvalidInput, "at least one customer must be invited")
		return
	}
	invitees := make([]primitive.ObjectID, 0, len(req.CustomerIDs))
	for _, raw := range req.CustomerIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			apierr.WriteKind(w, apierr.KindInvalidInput, "customerIds must be valid user ids")
			return
		}
		invitees = append(invitees, id)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	sess, err := h.Sessions.Create(ctx, callerID, title, h.sanitizer.Sanitize(req.Description), invitees, req.ScheduledFor)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}

	h.Log.Info("live session created",
		zap.String("session_id", sess.SessionID),
		zap.String("host_id", callerID.Hex()),
		zap.Int("invited", len(sess.InvitedCustomers)))

	batch := make([]models.Notification, 0, len(sess.InvitedCustomers))
	for _, customerID := range sess.InvitedCustomers {
		batch = append(batch, models.Notification{
			UserID:  customerID,
			Type:    models.NotificationSessionInvite,
			Title:   "Session invitation",
			Message: callerName + " invited you to " + sess.Title,
			Link:    "/live/" + sess.SessionID,
			RoomID:  sess.SessionID,
		})
	}
	res := notify.FanOut(ctx, h.Notifications, batch, h.NotifyConcurrency, h.Log)
	if res.Failed > 0 {
		h.Log.Warn("some session invitations not delivered",
			zap.String("session_id", sess.SessionID),
			zap.Int("failed", res.Failed))
	}

	respondJSON(w, http.StatusCreated, sess)
}

// ServeGet handles GET /api/live-sessions/{sessionID}.
// Visible to the host and invited customers, with invitee identities
// resolved to names.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sess, err := h.Sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}
	if sess.HostID != callerID && !sess.IsInvited(callerID) {
		apierr.WriteKind(w, apierr.KindForbidden, "not a participant of this session")
		return
	}

	detail := sessionDetail{LiveSession: *sess, Participants: []participant{}}
	users, err := h.Users.GetByIDs(ctx, append([]primitive.ObjectID{sess.HostID}, sess.InvitedCustomers...))
	if err != nil {
		h.Log.Warn("participant lookup failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	detail.HostName = names[sess.HostID]
	for _, id := range sess.InvitedCustomers {
		detail.Participants = append(detail.Participants, participant{
			ID:     id.Hex(),
			Name:   names[id],
			Joined: sess.HasJoined(id),
		})
	}

	respondJSON(w, http.StatusOK, detail)
}

// ServePatch handles PATCH /api/live-sessions/{sessionID}.
// Actions: start (host only), join and leave (host or invited). End has its
// own endpoint because it fans out notifications.
func (h *Handler) ServePatch(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteKind(w, apierr.KindInvalidInput, "invalid JSON body")
		return
	}
	switch req.Action {
	case livestore.ActionStart, livestore.ActionJoin, livestore.ActionLeave:
	default:
		apierr.WriteKind(w, apierr.KindInvalidInput, "unknown action")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sess, err := h.Sessions.Transition(ctx, sessionID, callerID, req.Action)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// ServeEnd handles POST /api/live-sessions/{sessionID}/end.
// Host only. Ends the session, notifies every invited customer, and pushes a
// session-ended event to everyone still connected to the room.
func (h *Handler) ServeEnd(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	sess, err := h.Sessions.Transition(ctx, sessionID, callerID, livestore.ActionEnd)
	if err != nil {
		apierr.Write(w, classify(err))
		return
	}

	h.Hub.BroadcastSessionEnded(sess.SessionID, callerID.Hex())
	h.Log.Info("live session ended",
		zap.String("session_id", sess.SessionID),
		zap.Int64("duration_secs", sess.DurationSecs))

	batch := make([]models.Notification, 0, len(sess.InvitedCustomers))
	for _, customerID := range sess.InvitedCustomers {
		batch = append(batch, models.Notification{
			UserID:  customerID,
			Type:    models.NotificationSessionEnded,
			Title:   "Session ended",
			Message: sess.Title + " has ended",
			RoomID:  sess.SessionID,
		})
	}
	res := notify.FanOut(ctx, h.Notifications, batch, h.NotifyConcurrency, h.Log)
	if res.Failed > 0 {
		h.Log.Warn("some session-ended notifications not delivered",
			zap.String("session_id", sess.SessionID),
			zap.Int("failed", res.Failed))
	}

	respondJSON(w, http.StatusOK, sess)
}

// classify maps store errors to the API error taxonomy. Unrecognized errors
// pass through and render as internal.
func classify(err error) error {
	switch {
	case errors.Is(err, livestore.ErrNotFound):
		return apierr.New(apierr.KindNotFound, "session not found")
	case errors.Is(err, livestore.ErrInvalidInvitee):
		return apierr.New(apierr.KindInvalidInput, "every invitee must be an existing customer")
	case errors.Is(err, livestore.ErrNotHost):
		return apierr.New(apierr.KindForbidden, "only the host may do that")
	case errors.Is(err, livestore.ErrNotInvited):
		return apierr.New(apierr.KindForbidden, "not invited to this session")
	case errors.Is(err, livestore.ErrSessionEnded):
		return apierr.New(apierr.KindSessionEnded, "session has ended")
	case errors.Is(err, livestore.ErrUnknownAction):
		return apierr.New(apierr.KindInvalidInput, "unknown action")
	default:
		return err
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
