// internal/app/features/rooms/routes.go
package rooms

import (
	"github.com/go-chi/chi/v5"
	"github.com/pulsemesh/pulsemesh/internal/app/system/auth"
)

// StatusRoutes returns the router for the join-status probe, mounted under
// /api/sessions.
func StatusRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/{id}/status", h.ServeStatus)
	return r
}

// PresenceRoutes returns the router for the presence probe, mounted under
// /api/rooms.
func PresenceRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/{roomID}/presence", h.ServePresence)
	return r
}
