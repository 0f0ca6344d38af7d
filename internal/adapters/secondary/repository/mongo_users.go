package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/ports"
)

// MongoUserStore adapte la collection Users (base logique séparée du
// contenu) au port UserStore. Les listes miroir (liked_posts, interests,
// choices) sont manipulées avec les mêmes primitives idempotentes que les
// ensembles côté document.
type MongoUserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) ports.UserStore {
	return &MongoUserStore{coll: db.Collection("Users")}
}

func (s *MongoUserStore) FindByID(ctx context.Context, userID string) (domain.RawDocument, error) {
	var raw bson.M
	err := s.coll.FindOne(ctx, idFilter(userID)).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user %s: %w", userID, err)
	}
	return domain.RawDocument(raw), nil
}

func (s *MongoUserStore) AddToList(ctx context.Context, userID, field, entityID string) error {
	return s.updateList(ctx, userID, "$addToSet", field, entityID)
}

func (s *MongoUserStore) RemoveFromList(ctx context.Context, userID, field, entityID string) error {
	return s.updateList(ctx, userID, "$pull", field, entityID)
}

func (s *MongoUserStore) updateList(ctx context.Context, userID, op, field, entityID string) error {
	res, err := s.coll.UpdateOne(ctx, idFilter(userID), bson.M{op: bson.M{field: entityID}})
	if err != nil {
		return fmt.Errorf("%s %s for user %s: %w", op, field, userID, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
