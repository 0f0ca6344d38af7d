package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
)

func TestIdFilter_HexObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	filter := idFilter(oid.Hex())
	assert.Equal(t, bson.M{"_id": oid}, filter)
}

func TestIdFilter_PlainStringID(t *testing.T) {
	// Les ids issus du scraping ne sont pas des ObjectID : match brut.
	filter := idFilter("scraped-venue-42")
	assert.Equal(t, bson.M{"_id": "scraped-venue-42"}, filter)
}

func TestSearchFilter_EscapesRegexMetacharacters(t *testing.T) {
	store := &MongoContentStore{
		name:         "posts",
		searchFields: []string{"title", "content"},
	}

	filter := store.searchFilter("jazz (live)")
	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 2)

	re, ok := or[0]["title"].(primitive.Regex)
	require.True(t, ok)
	// Matching sous-chaîne littéral : les métacaractères sont échappés.
	assert.Equal(t, `jazz \(live\)`, re.Pattern)
	assert.Equal(t, "i", re.Options)
}

func TestSearchFilter_EmptyQueryMatchesAll(t *testing.T) {
	store := &MongoContentStore{name: "posts", searchFields: []string{"title"}}
	assert.Equal(t, bson.M{}, store.searchFilter(""))
}

func TestCollectionSpecs_NativeFieldMappings(t *testing.T) {
	// La dérive de nommage FR/EN vit dans les adaptateurs, pas dans le
	// cœur : chaque collection garde ses champs natifs.
	cases := []struct {
		spec      collectionSpec
		wantLikes string
	}{
		{postSpec, "likes"},
		{restaurantSpec, "liked_by"},
		{leisureEventSpec, "likes"},
		{leisureProducerSpec, "likes"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.wantLikes, tc.spec.setFields[domain.SetLikes], tc.spec.name)
	}
	assert.Equal(t, "interestedUsers", restaurantSpec.setFields[domain.SetInterests])
	assert.Equal(t, "Loisir_Paris_Evenements", leisureEventSpec.collection)
	assert.Contains(t, leisureEventSpec.searchFields, "intitulé")
}
