package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pulsemesh/pulsemesh/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// RelayStats reports the signaling relay's current load. Implemented by the
// signaling hub.
type RelayStats interface {
	Stats() (connections, rooms int)
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Relay  RelayStats
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, relay RelayStats, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Relay:  relay,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string      `json:"status"`
	Database string      `json:"database"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	Relay    *relayState `json:"relay,omitempty"`
}

// relayState is a snapshot of the signaling relay for the health endpoint.
type relayState struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "relay":{"connections":3,"rooms":1} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	// Check database
	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Relay load (informational only)
	if h.Relay != nil {
		connections, rooms := h.Relay.Stats()
		resp.Relay = &relayState{Connections: connections, Rooms: rooms}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
