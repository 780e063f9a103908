// internal/app/store/livesessions/store.go
package livestore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	userstore "github.com/pulsemesh/pulsemesh/internal/app/store/users"
	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no live session exists for a session ID.
	ErrNotFound = errors.New("live session not found")
	// ErrInvalidInvitee is returned when any invitee does not resolve to an
	// existing customer account. Creation is all-or-nothing.
	ErrInvalidInvitee = errors.New("every invitee must be an existing customer")
	// ErrNotHost is returned when a host-only action is attempted by someone
	// else.
	ErrNotHost = errors.New("only the host may perform this action")
	// ErrNotInvited is returned when a caller outside the host+invited set
	// attempts to join or leave.
	ErrNotInvited = errors.New("caller is not invited to this session")
	// ErrSessionEnded is returned for any action against an ended session.
	ErrSessionEnded = errors.New("session has ended")
	// ErrUnknownAction is returned for an unrecognized transition action.
	ErrUnknownAction = errors.New("unknown session action")
)

// Actions accepted by Transition.
const (
	ActionStart = "start"
	ActionJoin  = "join"
	ActionLeave = "leave"
	ActionEnd   = "end"
)

// JoinDecision is the answer to "may this caller join right now?". Reason is
// only set when Allowed is false and distinguishes a finished session from a
// caller who was never invited — clients render different screens for each.
type JoinDecision struct {
	Allowed bool   `json:"canJoin"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"` // "ended" | "not-invited"
}

// Store manages live session records.
type Store struct {
	c     *mongo.Collection
	users *userstore.Store
}

// New creates a live session Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("live_sessions"), users: userstore.New(db)}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetName("idx_live_sessions_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_live_sessions_host"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new live session. Every invitee must resolve to an
// existing customer; otherwise nothing is created. With a scheduledFor time
// the session starts out scheduled, without one it goes live immediately.
func (s *Store) Create(ctx context.Context, hostID primitive.ObjectID, title, description string, invitees []primitive.ObjectID, scheduledFor *time.Time) (models.LiveSession, error) {
	invitees = dedup(invitees)
	if len(invitees) == 0 {
		return models.LiveSession{}, ErrInvalidInvitee
	}
	count, err := s.users.CountCustomersByIDs(ctx, invitees)
	if err != nil {
		return models.LiveSession{}, err
	}
	if count != int64(len(invitees)) {
		return models.LiveSession{}, ErrInvalidInvitee
	}

	now := time.Now().UTC()
	sess := models.LiveSession{
		ID:               primitive.NewObjectID(),
		SessionID:        uuid.NewString(),
		Title:            title,
		Description:      description,
		HostID:           hostID,
		InvitedCustomers: invitees,
		JoinedCustomers:  []primitive.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if scheduledFor != nil {
		sess.Status = models.LiveStatusScheduled
		sess.ScheduledFor = scheduledFor
	} else {
		sess.Status = models.LiveStatusLive
		sess.StartedAt = &now
	}

	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.LiveSession{}, err
	}
	return sess, nil
}

// GetBySessionID loads a live session by its session identifier.
func (s *Store) GetBySessionID(ctx context.Context, sessionID string) (*models.LiveSession, error) {
	var sess models.LiveSession
	if err := s.c.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&sess); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Transition applies a lifecycle action on behalf of callerID.
//
//   - start: host only, from any non-ended status; stamps started_at.
//   - join/leave: host or invited customer; mutate the joined set without
//     touching the status. Join is an idempotent set-add; leave removes.
//   - end: host only; stamps ended_at and duration (zero if never started).
//
// Any action against an ended session fails with ErrSessionEnded. The status
// write is compare-then-write on the status that was read.
func (s *Store) Transition(ctx context.Context, sessionID string, callerID primitive.ObjectID, action string) (*models.LiveSession, error) {
	sess, err := s.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.LiveStatusEnded {
		return nil, ErrSessionEnded
	}

	now := time.Now().UTC()

	switch action {
	case ActionStart:
		if sess.HostID != callerID {
			return nil, ErrNotHost
		}
		set := bson.M{"status": models.LiveStatusLive, "updated_at": now}
		if sess.StartedAt == nil {
			set["started_at"] = now
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"session_id": sessionID, "status": sess.Status},
			bson.M{"$set": set},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrSessionEnded
		}

	case ActionJoin, ActionLeave:
		if sess.HostID != callerID && !sess.IsInvited(callerID) {
			return nil, ErrNotInvited
		}
		var update bson.M
		if action == ActionJoin {
			update = bson.M{
				"$addToSet": bson.M{"joined_customers": callerID},
				"$set":      bson.M{"updated_at": now},
			}
		} else {
			update = bson.M{
				"$pull": bson.M{"joined_customers": callerID},
				"$set":  bson.M{"updated_at": now},
			}
		}
		// Guard on status so a join can't land after the host ends.
		if _, err := s.c.UpdateOne(ctx,
			bson.M{"session_id": sessionID, "status": bson.M{"$ne": models.LiveStatusEnded}},
			update,
		); err != nil {
			return nil, err
		}

	case ActionEnd:
		if sess.HostID != callerID {
			return nil, ErrNotHost
		}
		var duration int64
		if sess.StartedAt != nil {
			duration = int64(now.Sub(*sess.StartedAt).Seconds())
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"session_id": sessionID, "status": sess.Status},
			bson.M{"$set": bson.M{
				"status":        models.LiveStatusEnded,
				"ended_at":      now,
				"duration_secs": duration,
				"updated_at":    now,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrSessionEnded
		}

	default:
		return nil, ErrUnknownAction
	}

	return s.GetBySessionID(ctx, sessionID)
}

// CanJoin answers whether callerID may join the session right now. An ended
// session refuses everyone, including the host. A session stuck live with no
// one connected still admits its participants; presence is the relay's
// business, not the record's.
func (s *Store) CanJoin(ctx context.Context, sessionID string, callerID primitive.ObjectID) (JoinDecision, error) {
	sess, err := s.GetBySessionID(ctx, sessionID)
	if err != nil {
		return JoinDecision{}, err
	}
	if sess.Status == models.LiveStatusEnded {
		return JoinDecision{Allowed: false, Status: sess.Status, Reason: "ended"}, nil
	}
	if sess.HostID == callerID || sess.IsInvited(callerID) {
		return JoinDecision{Allowed: true, Status: sess.Status}, nil
	}
	return JoinDecision{Allowed: false, Status: sess.Status, Reason: "not-invited"}, nil
}

func dedup(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
