// internal/app/features/livesessions/routes.go
package livesessions

import (
	"github.com/go-chi/chi/v5"
	"github.com/pulsemesh/pulsemesh/internal/app/system/auth"
	"github.com/pulsemesh/pulsemesh/internal/app/system/ratelimit"
)

// Routes returns the router for live session lifecycle endpoints.
// Only admins may host sessions; invited customers read, join, and leave
// (membership checks happen in the handlers and store). Creation is rate
// limited per user since each one fans out invitations.
func Routes(h *Handler, sm *auth.SessionManager, rl *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole("admin"))
		pr.Use(rl.PerUser)
		pr.Post("/", h.ServeCreate)
	})

	r.Get("/{sessionID}", h.ServeGet)
	r.Patch("/{sessionID}", h.ServePatch)
	r.Post("/{sessionID}/end", h.ServeEnd)

	return r
}
