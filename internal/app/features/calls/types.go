// internal/app/features/calls/types.go
package calls

import (
	"context"

	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStore is the slice of the call store this feature uses.
type SessionStore interface {
	Create(ctx context.Context, initiatorID, customerID primitive.ObjectID) (models.CallSession, error)
	GetByRoomID(ctx context.Context, roomID string) (*models.CallSession, error)
	Transition(ctx context.Context, roomID string, callerID primitive.ObjectID, target string) (*models.CallSession, error)
}

// Broadcaster pushes an authoritative end-of-session event into a signaling
// room. Implemented by the signaling hub.
type Broadcaster interface {
	BroadcastSessionEnded(roomID, endedBy string)
}

// createRequest is the JSON body for POST /api/calls.
type createRequest struct {
	CustomerID string `json:"customerId"`
}

// patchRequest is the JSON body for PATCH /api/calls/{roomID}.
type patchRequest struct {
	Action string `json:"action"` // "accept"
}
