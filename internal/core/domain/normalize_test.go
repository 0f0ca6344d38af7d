package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// --- Inférence du kind ---

func TestInferKind(t *testing.T) {
	cases := []struct {
		name string
		raw  RawDocument
		want Kind
	}{
		{
			name: "event: catégorie + date_debut",
			raw:  RawDocument{"catégorie": "Théâtre", "date_debut": "2025-07-01"},
			want: KindLeisureEvent,
		},
		{
			name: "event: english schema",
			raw:  RawDocument{"category": "concert", "start_date": "2025-07-01"},
			want: KindLeisureEvent,
		},
		{
			name: "catégorie seule sans date n'est pas un event",
			raw:  RawDocument{"catégorie": "Théâtre"},
			want: KindPost,
		},
		{
			name: "restaurant: menu",
			raw:  RawDocument{"menu": []any{}, "name": "Chez Marcel"},
			want: KindRestaurant,
		},
		{
			name: "restaurant: horaires",
			raw:  RawDocument{"opening_hours": []any{"Mo-Fr 10:00-22:00"}},
			want: KindRestaurant,
		},
		{
			name: "producer: nombre_evenements",
			raw:  RawDocument{"nombre_evenements": 12, "lieu": "Le Trianon"},
			want: KindLeisureProducer,
		},
		{
			name: "producer: embedded events",
			raw:  RawDocument{"evenements": []any{"e1", "e2"}},
			want: KindLeisureProducer,
		},
		{
			name: "post fallback",
			raw:  RawDocument{"content": "hello", "likes": []any{}},
			want: KindPost,
		},
		{
			name: "document malformé: aucun champ connu",
			raw:  RawDocument{"mystery": 42},
			want: KindPost,
		},
		{
			name: "priorité: event gagne sur restaurant",
			raw:  RawDocument{"catégorie": "food", "date_debut": "2025-07-01", "menu": []any{}},
			want: KindLeisureEvent,
		},
		{
			name: "champ présent mais nil ne compte pas",
			raw:  RawDocument{"catégorie": nil, "date_debut": "2025-07-01"},
			want: KindPost,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferKind(tc.raw))
		})
	}
}

// L'inférence ne dépend pas de la collection d'origine : elle n'a même pas
// accès à cette information, seule la forme du document compte.
func TestInferKind_PureFunctionOfFields(t *testing.T) {
	raw := RawDocument{"catégorie": "Jazz", "date_debut": "2025-07-01"}
	for i := 0; i < 10; i++ {
		assert.Equal(t, KindLeisureEvent, InferKind(raw))
	}
}

// --- Normalisation ---

func TestNormalize_Deterministic(t *testing.T) {
	raw := RawDocument{
		"_id":        "abc123",
		"title":      "Soirée jazz",
		"likes":      []any{"u1", "u2"},
		"created_at": "2025-05-30T10:00:00Z",
	}

	a := NormalizeAt(raw, fixedNow)
	b := NormalizeAt(raw, fixedNow)
	assert.Equal(t, a, b)
}

func TestNormalize_MissingCreatedDefaultsToNow(t *testing.T) {
	// Unique impureté documentée : pas de date de création => horloge.
	doc := NormalizeAt(RawDocument{"_id": "x"}, fixedNow)
	assert.Equal(t, fixedNow, doc.Dates.Created)
}

func TestNormalize_TotalOnGarbage(t *testing.T) {
	cases := []RawDocument{
		nil,
		{},
		{"likes": "not-a-list", "title": 42, "location": true},
		{"comments": []any{"not-a-map", nil}},
	}
	for _, raw := range cases {
		require.NotPanics(t, func() {
			doc := NormalizeAt(raw, fixedNow)
			assert.Equal(t, KindPost, doc.Kind)
			assert.Empty(t, doc.Title)
			assert.Empty(t, doc.Description)
		})
	}
}

func TestNormalize_FieldPriority(t *testing.T) {
	// Premier candidat présent non-nul gagnant.
	doc := NormalizeAt(RawDocument{
		"title":    "canonical title",
		"intitulé": "titre legacy",
		"name":     "fallback name",
	}, fixedNow)
	assert.Equal(t, "canonical title", doc.Title)

	doc = NormalizeAt(RawDocument{"intitulé": "titre legacy", "name": "fallback"}, fixedNow)
	assert.Equal(t, "titre legacy", doc.Title)
}

func TestNormalize_InteractionSetsDeduplicated(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"likes":           []any{"u1", "u2", "u1", "u2"},
		"interestedUsers": []any{"u3"},
	}, fixedNow)

	assert.Equal(t, []string{"u1", "u2"}, doc.Interactions.Likes)
	assert.Equal(t, []string{"u3"}, doc.Interactions.Interests)
}

func TestNormalize_CountsDerivedFromSets(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"likes": []any{"u1", "u2", "u1"},
		// Compteur scalaire legacy en désaccord : il ne fait pas foi.
		"likes_count": 99,
		"choices":     []any{"u5"},
	}, fixedNow)

	assert.Equal(t, len(doc.Interactions.Likes), doc.Metrics.LikesCount)
	assert.Equal(t, 2, doc.Metrics.LikesCount)
	assert.Equal(t, 1, doc.Metrics.ChoicesCount)
	assert.Equal(t, 0, doc.Metrics.InterestsCount)
}

func TestNormalize_CoordinatesGeoJSON(t *testing.T) {
	// GeoJSON met la longitude en premier : [lng, lat].
	doc := NormalizeAt(RawDocument{
		"location": map[string]any{
			"type":        "Point",
			"coordinates": []any{2.3522, 48.8566},
		},
	}, fixedNow)

	require.NotNil(t, doc.Location)
	require.NotNil(t, doc.Location.Coordinates)
	assert.InDelta(t, 48.8566, doc.Location.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, doc.Location.Coordinates.Longitude, 1e-9)
}

func TestNormalize_CoordinatesSeparateFields(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"latitude":  48.8566,
		"longitude": 2.3522,
	}, fixedNow)

	require.NotNil(t, doc.Location)
	require.NotNil(t, doc.Location.Coordinates)
	assert.InDelta(t, 48.8566, doc.Location.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, doc.Location.Coordinates.Longitude, 1e-9)
}

func TestNormalize_MediaMergedAndDeduplicated(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"photo":  "https://cdn.example/a.jpg",
		"photos": []any{"https://cdn.example/b.jpg", "https://cdn.example/a.jpg"},
		"images": []any{map[string]any{"url": "https://cdn.example/c.jpg"}},
	}, fixedNow)

	assert.Equal(t, []string{
		"https://cdn.example/b.jpg",
		"https://cdn.example/a.jpg",
		"https://cdn.example/c.jpg",
	}, doc.Media)
}

func TestNormalize_FrenchDateFormat(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"catégorie":  "Concert",
		"date_debut": "15/07/2025",
	}, fixedNow)

	assert.Equal(t, KindLeisureEvent, doc.Kind)
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), doc.Dates.Start)
}

func TestNormalize_UnparsableDateIsZero(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"catégorie":  "Concert",
		"date_debut": "prochainement",
	}, fixedNow)
	assert.True(t, doc.Dates.Start.IsZero())
}

func TestNormalize_BsonPrimitives(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

	doc := NormalizeAt(RawDocument{
		"_id":        oid,
		"likes":      primitive.A{"u1", "u2"},
		"created_at": primitive.DateTime(created.UnixMilli()),
		"location": primitive.M{
			"coordinates": primitive.A{2.0, 45.0},
		},
	}, fixedNow)

	assert.Equal(t, oid.Hex(), doc.ID)
	assert.Equal(t, []string{"u1", "u2"}, doc.Interactions.Likes)
	assert.True(t, created.Equal(doc.Dates.Created), "created = %v", doc.Dates.Created)
	require.NotNil(t, doc.Location.Coordinates)
	assert.InDelta(t, 45.0, doc.Location.Coordinates.Latitude, 1e-9)
}

func TestNormalize_MetadataKindSpecific(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"catégorie":  "Concert",
		"date_debut": "2025-07-01",
		"prix":       "25€",
		// Champ sans pertinence pour un event : jeté.
		"menu": []any{"entrée"},
	}, fixedNow)

	assert.Equal(t, KindLeisureEvent, doc.Kind)
	assert.Equal(t, "25€", doc.Metadata["prix"])
	assert.NotContains(t, doc.Metadata, "menu")
}

func TestNormalize_ProducerRef(t *testing.T) {
	doc := NormalizeAt(RawDocument{
		"catégorie":   "Concert",
		"date_debut":  "2025-07-01",
		"producer_id": "prod-42",
	}, fixedNow)
	assert.Equal(t, "prod-42", doc.ProducerRef)
}

func TestNormalize_FollowersAsListOrScalar(t *testing.T) {
	byList := NormalizeAt(RawDocument{"followers": []any{"a", "b", "c"}}, fixedNow)
	assert.Equal(t, 3, byList.Metrics.FollowersCount)

	byScalar := NormalizeAt(RawDocument{"abonnés": 120}, fixedNow)
	assert.Equal(t, 120, byScalar.Metrics.FollowersCount)
}

// --- Opérations d'ensemble immutables ---

func TestSetAddIdempotent(t *testing.T) {
	s := []string{"u1"}
	once := SetAdd(s, "u2")
	twice := SetAdd(once, "u2")
	assert.Equal(t, []string{"u1", "u2"}, once)
	assert.Equal(t, once, twice)
	// L'original n'est pas muté.
	assert.Equal(t, []string{"u1"}, s)
}

func TestSetRemoveAbsentIsNoop(t *testing.T) {
	s := []string{"u1"}
	assert.Equal(t, s, SetRemove(s, "u9"))
	assert.Empty(t, SetRemove(s, "u1"))
}
