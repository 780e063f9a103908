// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types emitted by the call/session lifecycle.
const (
	NotificationIncomingCall  = "incoming_call"
	NotificationSessionInvite = "session_invite"
	NotificationSessionEnded  = "session_ended"
)

// Notification is a fire-and-forget message addressed to one user. The
// lifecycle handlers create them; the client polls its own list and marks
// entries read.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	Type    string `bson:"type" json:"type"`
	Title   string `bson:"title" json:"title"`
	Message string `bson:"message" json:"message"`

	// Link is a deep link into the client app (e.g. /call/{roomID}).
	Link string `bson:"link,omitempty" json:"link,omitempty"`
	// RoomID correlates the notification with a call room or live session.
	RoomID string `bson:"room_id,omitempty" json:"room_id,omitempty"`

	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
