// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	notificationstore "github.com/pulsemesh/pulsemesh/internal/app/store/notifications"
	"github.com/pulsemesh/pulsemesh/internal/app/system/apierr"
	"github.com/pulsemesh/pulsemesh/internal/app/system/authz"
	"github.com/pulsemesh/pulsemesh/internal/app/system/timeouts"
	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Inbox is the slice of the notifications store this feature uses.
type Inbox interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
}

// Handler serves the current user's notification inbox.
type Handler struct {
	Inbox Inbox
	Log   *zap.Logger
}

// NewHandler creates a new notifications handler.
func NewHandler(inbox Inbox, logger *zap.Logger) *Handler {
	return &Handler{Inbox: inbox, Log: logger}
}

// ServeList handles GET /api/notifications.
// Returns the signed-in user's notifications, newest first. An optional
// limit query parameter caps the page size.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			apierr.WriteKind(w, apierr.KindInvalidInput, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Inbox.ListForUser(ctx, userID, limit)
	if err != nil {
		h.Log.Error("list notifications failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		apierr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// ServeMarkRead handles POST /api/notifications/{id}/read.
// Only the addressee can mark a notification read; anyone else sees 404.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierr.WriteKind(w, apierr.KindUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.WriteKind(w, apierr.KindInvalidInput, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Inbox.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, notificationstore.ErrNotFound) {
			apierr.WriteKind(w, apierr.KindNotFound, "notification not found")
			return
		}
		apierr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
