// internal/app/features/calls/routes.go
package calls

import (
	"github.com/go-chi/chi/v5"
	"github.com/pulsemesh/pulsemesh/internal/app/system/auth"
	"github.com/pulsemesh/pulsemesh/internal/app/system/ratelimit"
)

// Routes returns the router for call lifecycle endpoints.
// Only admins may initiate calls; any signed-in participant may read,
// accept, or end one (participant checks happen in the handlers).
// Initiations are rate limited per user so a stuck client can't flood
// customers with ringing notifications.
func Routes(h *Handler, sm *auth.SessionManager, rl *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole("admin"))
		pr.Use(rl.PerUser)
		pr.Post("/", h.ServeCreate)
	})

	r.Get("/{roomID}", h.ServeGet)
	r.Patch("/{roomID}", h.ServePatch)
	r.Post("/{roomID}/end", h.ServeEnd)

	return r
}
