// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/go-chi/chi/v5"
	"github.com/pulsemesh/pulsemesh/internal/app/system/auth"
)

// Routes returns the router for the notification inbox endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/{id}/read", h.ServeMarkRead)
	return r
}
