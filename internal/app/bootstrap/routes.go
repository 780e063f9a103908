// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	callsfeature "github.com/pulsemesh/pulsemesh/internal/app/features/calls"
	healthfeature "github.com/pulsemesh/pulsemesh/internal/app/features/health"
	livesessionsfeature "github.com/pulsemesh/pulsemesh/internal/app/features/livesessions"
	notificationsfeature "github.com/pulsemesh/pulsemesh/internal/app/features/notifications"
	roomsfeature "github.com/pulsemesh/pulsemesh/internal/app/features/rooms"
	"github.com/pulsemesh/pulsemesh/internal/app/features/signaling"
	callstore "github.com/pulsemesh/pulsemesh/internal/app/store/calls"
	livestore "github.com/pulsemesh/pulsemesh/internal/app/store/livesessions"
	notificationstore "github.com/pulsemesh/pulsemesh/internal/app/store/notifications"
	userstore "github.com/pulsemesh/pulsemesh/internal/app/store/users"
	"github.com/pulsemesh/pulsemesh/internal/app/system/auth"
	"github.com/pulsemesh/pulsemesh/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. PulseMesh mounts the signaling WebSocket
// endpoint, the call and live session lifecycle APIs, the notification inbox,
// the room status/presence probes, and the health check.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores
	calls := callstore.New(deps.MongoDatabase)
	sessions := livestore.New(deps.MongoDatabase)
	notifications := notificationstore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase)

	// Creation endpoints share one per-user limiter.
	createLimiter := ratelimit.New(appCfg.CreateRateLimit, time.Minute)

	// Signaling relay
	hub := signaling.NewHub(appCfg.WSSendQueueSize, logger)
	wsHandler := signaling.NewHandler(hub, appCfg.WSReadBufferSize, appCfg.WSWriteBufferSize, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, hub, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Signaling WebSocket
	r.Mount("/ws", signaling.Routes(wsHandler))

	// Lifecycle and inbox APIs
	callsHandler := callsfeature.NewHandler(calls, notifications, hub, appCfg.NotifyConcurrency, logger)
	liveHandler := livesessionsfeature.NewHandler(sessions, users, notifications, hub, appCfg.NotifyConcurrency, logger)
	notificationsHandler := notificationsfeature.NewHandler(notifications, logger)
	roomsHandler := roomsfeature.NewHandler(calls, sessions, hub, logger)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/calls", callsfeature.Routes(callsHandler, sessionMgr, createLimiter))
		api.Mount("/live-sessions", livesessionsfeature.Routes(liveHandler, sessionMgr, createLimiter))
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))
		api.Mount("/sessions", roomsfeature.StatusRoutes(roomsHandler, sessionMgr))
		api.Mount("/rooms", roomsfeature.PresenceRoutes(roomsHandler, sessionMgr))
	})

	return r, nil
}
