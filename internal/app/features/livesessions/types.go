// internal/app/features/livesessions/types.go
package livesessions

import (
	"context"
	"time"

	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStore is the slice of the live session store this feature uses.
type SessionStore interface {
	Create(ctx context.Context, hostID primitive.ObjectID, title, description string, invitees []primitive.ObjectID, scheduledFor *time.Time) (models.LiveSession, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.LiveSession, error)
	Transition(ctx context.Context, sessionID string, callerID primitive.ObjectID, action string) (*models.LiveSession, error)
}

// UserDirectory resolves user identities for participant lists.
type UserDirectory interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// Broadcaster pushes an authoritative end-of-session event into a signaling
// room. Implemented by the signaling hub.
type Broadcaster interface {
	BroadcastSessionEnded(roomID, endedBy string)
}

// createRequest is the JSON body for POST /api/live-sessions.
type createRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	CustomerIDs  []string   `json:"customerIds"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

// patchRequest is the JSON body for PATCH /api/live-sessions/{sessionID}.
type patchRequest struct {
	Action string `json:"action"` // "start" | "join" | "leave"
}

// participant is one resolved identity in a session detail response.
type participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Joined bool   `json:"joined"`
}

// sessionDetail is the GET response: the session record with the host and
// invited customers resolved to names.
type sessionDetail struct {
	models.LiveSession
	HostName     string        `json:"host_name,omitempty"`
	Participants []participant `json:"participants"`
}
