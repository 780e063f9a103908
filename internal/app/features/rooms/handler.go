// internal/app/features/rooms/handler.go

// Package rooms answers "may I join this room, and who is in it right now?"
// for both call rooms and live sessions. The status endpoint reads the
// durable record; the presence endpoint reads the relay's registry. The two
// can legitimately disagree (a session stuck live with nobody connected).
package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pulsemesh/pulsemesh/internal/app/features/signaling"
	callstore "github.com/pulsemesh/pulsemesh/internal/app/store/calls"
	livestore "github.com/pulsemesh/pulsemesh/internal/app/store/livesessions"
	"github.com/pulsemesh/pulsemesh/internal/app/system/apierr"
	"github.com/pulsemesh/pulsemesh/internal/app/system/authz"
	"github.com/pulsemesh/pulsemesh/internal/app/system/timeouts"
	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves room status and presence probes.
type Handler struct {
	Calls    CallStore
	Sessions LiveStore
	Hub      PresenceSource
	Log      *zap.Logger
}

// NewHandler creates a new rooms handler.
func NewHandler(calls CallStore, sessions LiveStore, hub PresenceSource, logger *zap.Logger) *Handler {
	return &Handler{Calls: calls, Sessions: sessions, Hub: hub, Log: logger}
}

// ServeStatus handles GET /api/sessions/{id}/status.
// The id may be a call room ID or a live session ID; call rooms are tried
// first since their prefix makes collisions impossible.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	decision, err := h.decide(ctx, id, callerID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

func (h *Handler) decide(ctx context.Context, id string, callerID primitive.ObjectID) (livestore.JoinDecision, error) {
	call, err := h.Calls.GetByRoomID(ctx, id)
	switch {
	case err == nil:
		if call.IsTerminal() {
			return livestore.JoinDecision{Allowed: false, Status: call.Status, Reason: "ended"}, nil
		}
		if !call.IsParticipant(callerID) {
			return livestore.JoinDecision{Allowed: false, Status: call.Status, Reason: "not-invited"}, nil
		}
		return livestore.JoinDecision{Allowed: true, Status: call.Status}, nil

	case errors.Is(err, callstore.ErrNotFound):
		decision, err := h.Sessions.CanJoin(ctx, id, callerID)
		if err != nil {
			if errors.Is(err, livestore.ErrNotFound) {
				return livestore.JoinDecision{}, apierr.New(apierr.KindNotFound, "session not found")
			}
			return livestore.JoinDecision{}, err
		}
		return decision, nil

	default:
		return livestore.JoinDecision{}, err
	}
}

// presenceResponse is the GET presence body.
type presenceResponse struct {
	RoomID  string           `json:"roomId"`
	Members []presenceMember `json:"members"`
}

type presenceMember struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// ServePresence handles GET /api/rooms/{roomID}/presence.
// Participants of the underlying call or session may see who is connected
// right now. An empty list is a normal answer, not an error.
func (h *Handler) ServePresence(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	roomID := chi.URLParam(r, "roomID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.authorize(ctx, roomID, callerID); err != nil {
		apierr.Write(w, err)
		return
	}

	members := h.Hub.Presence(roomID)
	resp := presenceResponse{RoomID: roomID, Members: []presenceMember{}}
	for _, m := range members {
		resp.Members = append(resp.Members, presenceMember{UserID: m.UserID, UserName: m.UserName})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) authorize(ctx context.Context, roomID string, callerID primitive.ObjectID) error {
	call, err := h.Calls.GetByRoomID(ctx, roomID)
	switch {
	case err == nil:
		if !call.IsParticipant(callerID) {
			return apierr.New(apierr.KindForbidden, "not a participant of this room")
		}
		return nil

	case errors.Is(err, callstore.ErrNotFound):
		sess, err := h.Sessions.GetBySessionID(ctx, roomID)
		if err != nil {
			if errors.Is(err, livestore.ErrNotFound) {
				return apierr.New(apierr.KindNotFound, "room not found")
			}
			return err
		}
		if sess.HostID != callerID && !sess.IsInvited(callerID) {
			return apierr.New(apierr.KindForbidden, "not a participant of this room")
		}
		return nil

	default:
		return err
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CallStore is the slice of the call store this feature uses.
type CallStore interface {
	GetByRoomID(ctx context.Context, roomID string) (*models.CallSession, error)
}

// LiveStore is the slice of the live session store this feature uses.
type LiveStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.LiveSession, error)
	CanJoin(ctx context.Context, sessionID string, callerID primitive.ObjectID) (livestore.JoinDecision, error)
}

// PresenceSource reports who is connected to a room. Implemented by the
// signaling hub.
type PresenceSource interface {
	Presence(roomID string) []signaling.Member
}
