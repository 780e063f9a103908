// internal/domain/models/livesession.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Live session statuses.
const (
	LiveStatusScheduled = "scheduled"
	LiveStatusLive      = "live"
	LiveStatusEnded     = "ended"
)

// LiveSession is the durable record of a 1:many hosted session (e.g. a group
// training class). The invited set is fixed at creation; the joined set grows
// and shrinks as customers come and go. Records are never deleted.
type LiveSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   string             `bson:"session_id" json:"session_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	HostID      primitive.ObjectID `bson:"host_id" json:"host_id"`

	InvitedCustomers []primitive.ObjectID `bson:"invited_customers" json:"invited_customers"`
	JoinedCustomers  []primitive.ObjectID `bson:"joined_customers" json:"joined_customers"`

	Status string `bson:"status" json:"status"`

	ScheduledFor *time.Time `bson:"scheduled_for,omitempty" json:"scheduled_for,omitempty"`
	StartedAt    *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	EndedAt      *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationSecs int64      `bson:"duration_secs,omitempty" json:"duration_secs"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsInvited reports whether the given user is in the invited set.
func (s *LiveSession) IsInvited(userID primitive.ObjectID) bool {
	for _, id := range s.InvitedCustomers {
		if id == userID {
			return true
		}
	}
	return false
}

// HasJoined reports whether the given user is currently in the joined set.
func (s *LiveSession) HasJoined(userID primitive.ObjectID) bool {
	for _, id := range s.JoinedCustomers {
		if id == userID {
			return true
		}
	}
	return false
}
