// internal/app/features/signaling/routes.go
package signaling

import "github.com/go-chi/chi/v5"

// Routes returns the router for the signaling WebSocket endpoint.
//
// The socket itself is unauthenticated at the HTTP layer: room identifiers
// are unguessable and issued only to authorized participants by the session
// lifecycle endpoints, which is where access control lives.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeWS)
	return r
}
