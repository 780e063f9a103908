// internal/domain/models/callsession.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Call session statuses.
const (
	CallStatusPending = "pending"
	CallStatusActive  = "active"
	CallStatusEnded   = "ended"
	CallStatusMissed  = "missed" // ended before it was ever answered
)

// CallSession is the durable record of a 1:1 call between an admin and a
// customer. The room ID doubles as the signaling room name and is the record's
// natural key. Records are never deleted; they form the call history.
type CallSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID      string             `bson:"room_id" json:"room_id"`
	InitiatorID primitive.ObjectID `bson:"initiator_id" json:"initiator_id"`
	CustomerID  primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Status      string             `bson:"status" json:"status"`

	StartedAt *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	// DurationSecs is computed when the call ends: ended_at - started_at,
	// zero when the call was never answered.
	DurationSecs int64 `bson:"duration_secs,omitempty" json:"duration_secs"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsParticipant reports whether the given user is one of the two parties of
// the call. Only participants may read or transition a call session.
func (c *CallSession) IsParticipant(userID primitive.ObjectID) bool {
	return c.InitiatorID == userID || c.CustomerID == userID
}

// IsTerminal reports whether the call has reached a terminal status.
func (c *CallSession) IsTerminal() bool {
	return c.Status == CallStatusEnded || c.Status == CallStatusMissed
}
