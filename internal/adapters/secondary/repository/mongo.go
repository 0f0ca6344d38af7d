package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/ports"
)

// MongoContentStore adapte UNE collection legacy au port ContentStore.
// Chaque collection garde ses noms de champs natifs (dérive FR/EN comprise) ;
// la correspondance ensemble canonique → champ natif est portée ici, pas
// dans le cœur.
type MongoContentStore struct {
	coll         *mongo.Collection
	name         string
	setFields    map[domain.InteractionSet]string
	searchFields []string
}

// collectionSpec décrit une collection legacy : son nom physique, ses
// champs d'ensemble natifs et ses champs cherchables. Déclaré en donnée
// pour que la dérive de nommage FR/EN soit auditable d'un coup d'œil.
type collectionSpec struct {
	collection   string
	name         string
	setFields    map[domain.InteractionSet]string
	searchFields []string
}

var (
	postSpec = collectionSpec{
		collection: "Posts",
		name:       "posts",
		setFields: map[domain.InteractionSet]string{
			domain.SetLikes:     "likes",
			domain.SetInterests: "interests",
			domain.SetChoices:   "choices",
		},
		searchFields: []string{"title", "content", "tags"},
	}
	restaurantSpec = collectionSpec{
		collection: "producers",
		name:       "restaurant_producers",
		setFields: map[domain.InteractionSet]string{
			domain.SetLikes:     "liked_by",
			domain.SetInterests: "interestedUsers",
			domain.SetChoices:   "choices",
		},
		searchFields: []string{"name", "description", "address", "cuisine"},
	}
	leisureEventSpec = collectionSpec{
		collection: "Loisir_Paris_Evenements",
		name:       "leisure_events",
		setFields: map[domain.InteractionSet]string{
			domain.SetLikes:     "likes",
			domain.SetInterests: "interests",
			domain.SetChoices:   "choices",
		},
		searchFields: []string{"intitulé", "détail", "catégorie", "lieu"},
	}
	leisureProducerSpec = collectionSpec{
		collection: "Loisir_Paris_Producers",
		name:       "leisure_producers",
		setFields: map[domain.InteractionSet]string{
			domain.SetLikes:     "likes",
			domain.SetInterests: "interests",
			domain.SetChoices:   "choices",
		},
		searchFields: []string{"lieu", "description", "adresse"},
	}
)

func newContentStore(db *mongo.Database, spec collectionSpec) *MongoContentStore {
	return &MongoContentStore{
		coll:         db.Collection(spec.collection),
		name:         spec.name,
		setFields:    spec.setFields,
		searchFields: spec.searchFields,
	}
}

// Les quatre collections legacy, avec leurs champs natifs respectifs.

func NewPostStore(db *mongo.Database) ports.ContentStore {
	return newContentStore(db, postSpec)
}

func NewRestaurantStore(db *mongo.Database) ports.ContentStore {
	return newContentStore(db, restaurantSpec)
}

func NewLeisureEventStore(db *mongo.Database) ports.ContentStore {
	return newContentStore(db, leisureEventSpec)
}

func NewLeisureProducerStore(db *mongo.Database) ports.ContentStore {
	return newContentStore(db, leisureProducerSpec)
}

func (s *MongoContentStore) Name() string { return s.name }

// idFilter : les _id legacy sont soit des ObjectID soit des chaînes brutes
// (imports de scraping). On matche les deux formes.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func (s *MongoContentStore) FindByID(ctx context.Context, id string) (domain.RawDocument, error) {
	var raw bson.M
	err := s.coll.FindOne(ctx, idFilter(id)).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding %s/%s: %w", s.name, id, err)
	}
	return domain.RawDocument(raw), nil
}

func (s *MongoContentStore) Recent(ctx context.Context, limit int64) ([]domain.RawDocument, error) {
	// Tri _id décroissant : proxy de récence fiable pour les ObjectID,
	// moins coûteux qu'un tri sur des champs de date hétérogènes.
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing recent %s: %w", s.name, err)
	}
	return collectRaw(ctx, cursor)
}

// searchFilter construit un $or de regex insensibles à la casse sur les
// champs cherchables de la collection. La requête est échappée : matching
// sous-chaîne littéral, comme le legacy.
func (s *MongoContentStore) searchFilter(query string) bson.M {
	if query == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	or := make([]bson.M, 0, len(s.searchFields))
	for _, field := range s.searchFields {
		or = append(or, bson.M{field: pattern})
	}
	return bson.M{"$or": or}
}

func (s *MongoContentStore) Search(ctx context.Context, query string, limit int64) ([]domain.RawDocument, error) {
	opts := options.Find().SetLimit(limit)
	cursor, err := s.coll.Find(ctx, s.searchFilter(query), opts)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.name, err)
	}
	return collectRaw(ctx, cursor)
}

func (s *MongoContentStore) Count(ctx context.Context, query string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, s.searchFilter(query))
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.name, err)
	}
	return n, nil
}

// AddToSet s'appuie sur $addToSet : idempotent côté store, pas de doublon
// possible même sous requêtes concurrentes.
func (s *MongoContentStore) AddToSet(ctx context.Context, id string, set domain.InteractionSet, userID string) error {
	return s.updateSet(ctx, id, "$addToSet", set, userID)
}

// RemoveFromSet s'appuie sur $pull : retirer un absent est un no-op.
func (s *MongoContentStore) RemoveFromSet(ctx context.Context, id string, set domain.InteractionSet, userID string) error {
	return s.updateSet(ctx, id, "$pull", set, userID)
}

func (s *MongoContentStore) updateSet(ctx context.Context, id, op string, set domain.InteractionSet, userID string) error {
	field, ok := s.setFields[set]
	if !ok {
		return fmt.Errorf("collection %s has no field for set %q", s.name, set)
	}
	res, err := s.coll.UpdateOne(ctx, idFilter(id), bson.M{op: bson.M{field: userID}})
	if err != nil {
		return fmt.Errorf("%s %s on %s/%s: %w", op, field, s.name, id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectRaw(ctx context.Context, cursor *mongo.Cursor) ([]domain.RawDocument, error) {
	defer cursor.Close(ctx)

	var raws []domain.RawDocument
	for cursor.Next(ctx) {
		var m bson.M
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		raws = append(raws, domain.RawDocument(m))
	}
	return raws, cursor.Err()
}
