// internal/app/store/calls/callstore.go
package callstore

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
	// ErrNotFound is returned when no call session exists for a room ID.
	ErrNotFound = errors.New("call session not found")
	// ErrInvalidCounterparty is returned when the requested counterpart does
	// not resolve to an existing customer account.
	ErrInvalidCounterparty = errors.New("counterpart must be an existing customer")
	// ErrNotParticipant is returned when the caller is not one of the two
	// parties of the call.
	ErrNotParticipant = errors.New("caller is not a participant of this call")
	// ErrIllegalTransition is returned for any transition other than
	// pending→active and *→ended, including transitions out of a terminal
	// status.
	ErrIllegalTransition = errors.New("illegal call status transition")
)

// Store manages call session records.
type Store struct {
	c     *mongo.Collection
	users *userstore.Store
}

// New creates a call session Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("call_sessions"), users: userstore.New(db)}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Room ID is the natural key used by the signaling layer.
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}},
			Options: options.Index().SetName("idx_calls_room").SetUnique(true),
		},
		// Per-user call history, newest first.
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_calls_customer"),
		},
		{
			Keys:    bson.D{{Key: "initiator_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_calls_initiator"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create starts a new pending call session between the initiator and the
// customer. The room identifier is a fresh UUID so concurrent initiations
// between the same pair can never collide.
func (s *Store) Create(ctx context.Context, initiatorID, customerID primitive.ObjectID) (models.CallSession, error) {
	if _, err := s.users.GetCustomerByID(ctx, customerID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.CallSession{}, ErrInvalidCounterparty
		}
		return models.CallSession{}, err
	}

	now := time.Now().UTC()
	call := models.CallSession{
		ID:          primitive.NewObjectID(),
		RoomID:      "call-" + uuid.NewString(),
		InitiatorID: initiatorID,
		CustomerID:  customerID,
		Status:      models.CallStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, call); err != nil {
		return models.CallSession{}, err
	}
	return call, nil
}

// GetByRoomID loads a call session by its room identifier.
func (s *Store) GetByRoomID(ctx context.Context, roomID string) (*models.CallSession, error) {
	var call models.CallSession
	if err := s.c.FindOne(ctx, bson.M{"room_id": roomID}).Decode(&call); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &call, nil
}

// Transition moves the call to the target status on behalf of callerID.
//
// Legal transitions: pending→active (either participant, stamps started_at)
// and any non-terminal status→ended (either participant, stamps ended_at and
// the duration). Ending a call that was never answered records it as missed
// with zero duration. Everything else is ErrIllegalTransition.
//
// The write is a single-document compare-then-write: the update filter pins
// the status that was read, so of two racing transitions only one lands.
func (s *Store) Transition(ctx context.Context, roomID string, callerID primitive.ObjectID, target string) (*models.CallSession, error) {
	call, err := s.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !call.IsParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	if call.IsTerminal() {
		return nil, ErrIllegalTransition
	}

	now := time.Now().UTC()
	set := bson.M{"updated_at": now}

	switch target {
	case models.CallStatusActive:
		if call.Status != models.CallStatusPending {
			return nil, ErrIllegalTransition
		}
		set["status"] = models.CallStatusActive
		set["started_at"] = now

	case models.CallStatusEnded:
		set["ended_at"] = now
		if call.StartedAt != nil {
			set["status"] = models.CallStatusEnded
			set["duration_secs"] = int64(now.Sub(*call.StartedAt).Seconds())
		} else {
			set["status"] = models.CallStatusMissed
			set["duration_secs"] = int64(0)
		}

	default:
		return nil, ErrIllegalTransition
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"room_id": roomID, "status": call.Status},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		// A concurrent transition won the race.
		return nil, ErrIllegalTransition
	}
	return s.GetByRoomID(ctx, roomID)
}
