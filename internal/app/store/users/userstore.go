// internal/app/store/users/userstore.go
package userstore

import (
	"context"

	"github.com/pulsemesh/pulsemesh/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store reads platform user accounts. This service does not own the users
// collection; it only resolves identities for call and session membership.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCustomerByID loads a user by ObjectID, returning an error if the user
// does not exist or is not a customer role.
func (s *Store) GetCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "role": "customer"}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CountCustomersByIDs returns how many of the given IDs resolve to existing
// customer accounts. Callers compare against len(ids) to reject invitee lists
// containing unknown or non-customer identities.
func (s *Store) CountCustomersByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}, "role": "customer"})
}

// GetByIDs loads the users for the given IDs. Missing IDs are silently
// omitted; callers that need strict resolution use CountCustomersByIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
