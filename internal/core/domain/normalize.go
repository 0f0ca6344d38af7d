package domain

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Normalize projette un document brut hétérogène (quatre collections, deux
// langues de schéma) dans la forme canonique. Fonction totale : aucun champ
// manquant ne fait échouer, chaque champ a un repli défini.
//
// Unique impureté documentée : un document sans date de création reçoit
// time.Now().UTC(). Tout le reste est bit-identique d'un appel à l'autre.
func Normalize(raw RawDocument) *CanonicalDocument {
	return normalizeAt(raw, time.Now().UTC())
}

// NormalizeAt fixe l'horloge de repli ; utilisé par les tests pour vérifier
// le déterminisme sans dépendre de l'horloge murale.
func NormalizeAt(raw RawDocument, now time.Time) *CanonicalDocument {
	return normalizeAt(raw, now)
}

func normalizeAt(raw RawDocument, now time.Time) *CanonicalDocument {
	if raw == nil {
		raw = RawDocument{}
	}

	kind := InferKind(raw)

	doc := &CanonicalDocument{
		ID:          resolveID(raw),
		Kind:        kind,
		Title:       firstString(raw, "title", "intitulé", "intitule", "name", "nom", "lieu"),
		Description: firstString(raw, "description", "détail", "detail", "about", "content"),
		Location:    resolveLocation(raw),
		Media:       resolveMedia(raw),
		Tags:        resolveTags(raw),
		Author:      resolveAuthor(raw),
		Comments:    resolveComments(raw),
		Metadata:    resolveMetadata(raw, kind),
		ProducerRef: firstString(raw, "producer_id", "producerId", "venue_id", "producteur_id"),
	}

	doc.Interactions = InteractionSets{
		Likes:     resolveSet(raw, "likes", "liked_by", "likedBy"),
		Interests: resolveSet(raw, "interests", "interestedUsers", "interested_users"),
		Choices:   resolveSet(raw, "choices", "choiceUsers", "choice_users"),
	}

	doc.Dates = Dates{
		Created: resolveTime(raw, "createdAt", "created_at", "posted_at", "date_creation", "date_création"),
		Start:   resolveTime(raw, "date_debut", "date_début", "start_date", "startDate"),
		End:     resolveTime(raw, "date_fin", "end_date", "endDate"),
		Updated: resolveTime(raw, "updatedAt", "updated_at"),
	}
	if doc.Dates.Created.IsZero() {
		doc.Dates.Created = now
	}

	doc.Metrics = Metrics{
		Views:          firstInt(raw, "views", "vues", "view_count"),
		FollowersCount: firstInt(raw, "followers", "abonnés", "abonnes", "followers_count"),
		Rating:         firstFloat(raw, "rating", "note", "note_google"),
		CommentsCount:  firstInt(raw, "comments_count", "nombre_commentaires"),
	}
	doc.RecomputeMetrics()

	return doc
}

// --- RÉSOLUTION PAR CHAMP ---

func resolveID(raw RawDocument) string {
	if v, ok := raw["_id"]; ok {
		if s := asString(v); s != "" {
			return s
		}
	}
	return firstString(raw, "id")
}

// resolveLocation accepte les deux formes legacy : GeoJSON [lng, lat]
// (champ location/gps_coordinates) ou champs latitude/longitude séparés.
func resolveLocation(raw RawDocument) *Location {
	loc := &Location{
		Address: firstString(raw, "address", "adresse"),
	}

	for _, key := range []string{"location", "lieu"} {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if m, isMap := asMap(v); isMap {
			if loc.Name == "" {
				loc.Name = asString(m["name"])
			}
			if loc.Address == "" {
				loc.Address = asString(m["address"])
			}
			if loc.Coordinates == nil {
				loc.Coordinates = geoJSONCoords(m["coordinates"])
			}
			continue
		}
		if s := asString(v); s != "" && loc.Name == "" {
			loc.Name = s
		}
	}

	if loc.Coordinates == nil {
		if coords := geoJSONCoords(raw["gps_coordinates"]); coords != nil {
			loc.Coordinates = coords
		} else if m, ok := asMap(raw["gps_coordinates"]); ok {
			loc.Coordinates = latLngCoords(m)
		}
	}
	if loc.Coordinates == nil {
		loc.Coordinates = latLngCoords(raw)
	}

	if loc.Name == "" && loc.Address == "" && loc.Coordinates == nil {
		return nil
	}
	return loc
}

// geoJSONCoords lit soit {type: "Point", coordinates: [lng, lat]} soit
// directement le tableau [lng, lat]. GeoJSON met la longitude en premier.
func geoJSONCoords(v any) *Coordinates {
	if m, ok := asMap(v); ok {
		v = m["coordinates"]
	}
	pair := asSlice(v)
	if len(pair) != 2 {
		return nil
	}
	lng, okLng := asFloat(pair[0])
	lat, okLat := asFloat(pair[1])
	if !okLng || !okLat {
		return nil
	}
	return &Coordinates{Latitude: lat, Longitude: lng}
}

func latLngCoords(m map[string]any) *Coordinates {
	lat, okLat := asFloat(m["latitude"])
	lng, okLng := asFloat(m["longitude"])
	if !okLat || !okLng {
		return nil
	}
	return &Coordinates{Latitude: lat, Longitude: lng}
}

// resolveMedia fusionne jusqu'à cinq champs legacy en une liste d'URLs
// dédupliquée, ordre de première apparition conservé.
func resolveMedia(raw RawDocument) []string {
	var out []string
	seen := make(map[string]struct{})

	appendURL := func(u string) {
		if u == "" {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for _, key := range []string{"media", "photos", "images", "photo", "image"} {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s := asString(v); s != "" {
			appendURL(s)
			continue
		}
		for _, item := range asSlice(v) {
			if s := asString(item); s != "" {
				appendURL(s)
				continue
			}
			if m, ok := asMap(item); ok {
				appendURL(asString(m["url"]))
			}
		}
	}
	return out
}

func resolveTags(raw RawDocument) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, item := range asSlice(raw["tags"]) {
		add(asString(item))
	}
	// La catégorie legacy sert aussi de tag de recherche.
	add(firstString(raw, "catégorie", "categorie", "category"))
	return out
}

func resolveAuthor(raw RawDocument) Author {
	if m, ok := asMap(raw["author"]); ok {
		return Author{
			ID:     asString(m["id"]),
			Name:   asString(m["name"]),
			Avatar: asString(m["avatar"]),
		}
	}
	return Author{
		ID:     firstString(raw, "user_id", "author_id", "userId"),
		Name:   firstString(raw, "author_name", "username", "auteur"),
		Avatar: firstString(raw, "author_avatar", "avatar"),
	}
}

// resolveSet déduplique en conservant l'ordre source : l'appartenance fait
// foi, mais une sortie stable est requise pour le déterminisme.
func resolveSet(raw RawDocument, candidates ...string) []string {
	for _, key := range candidates {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		items := asSlice(v)
		out := make([]string, 0, len(items))
		seen := make(map[string]struct{}, len(items))
		for _, item := range items {
			id := asString(item)
			if id == "" {
				// Forme {userId: ...} vue dans certains documents posts.
				if m, ok := asMap(item); ok {
					id = asString(m["userId"])
				}
			}
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
		return out
	}
	return nil
}

func resolveComments(raw RawDocument) []Comment {
	items := asSlice(raw["comments"])
	if len(items) == 0 {
		items = asSlice(raw["commentaires"])
	}
	out := make([]Comment, 0, len(items))
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		c := Comment{
			ID:         asString(m["_id"]),
			Content:    firstStringOf(m, "content", "text", "contenu"),
			AuthorID:   firstStringOf(m, "author_id", "user_id", "userId"),
			AuthorName: firstStringOf(m, "author_name", "username"),
			CreatedAt:  parseWhen(m["created_at"]),
		}
		if c.ID == "" {
			c.ID = asString(m["id"])
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = parseWhen(m["createdAt"])
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Champs bruts conservés dans metadata, par kind. Tout le reste est jeté :
// metadata n'est pas un fourre-tout, seulement le spécifique au type.
var metadataFields = map[Kind][]string{
	KindLeisureEvent:    {"catégorie", "categorie", "category", "prix", "price", "prix_reduit", "horaires", "schedule", "salle"},
	KindRestaurant:      {"opening_hours", "horaires", "horaires_ouverture", "business_hours", "menu", "menus", "menu_items", "price_level", "cuisine"},
	KindLeisureProducer: {"nombre_evenements", "nombre_événements", "events_count", "evenements", "événements", "events", "activités", "activities"},
	KindPost:            {"tags", "visibility"},
}

func resolveMetadata(raw RawDocument, kind Kind) map[string]any {
	keep := metadataFields[kind]
	out := make(map[string]any, len(keep))
	for _, key := range keep {
		if v, ok := raw[key]; ok && v != nil {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// --- HELPERS DE COERCION ---
// Le driver Mongo v1 décode en primitive.M / primitive.A / primitive.DateTime
// / primitive.ObjectID ; les fixtures de test en types Go natifs. Les deux
// mondes passent par ici.

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case primitive.ObjectID:
		return t.Hex()
	case fmt.Stringer:
		return t.String()
	}
	return ""
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case primitive.M:
		return map[string]any(t), true
	case RawDocument:
		return map[string]any(t), true
	}
	return nil, false
}

func asSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case primitive.A:
		return []any(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// Formats de date rencontrés dans le corpus legacy, du plus précis au plus
// lâche. Le format français jour/mois/année vient des scrapers d'événements.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseWhen(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case primitive.DateTime:
		return t.Time().UTC()
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC()
			}
		}
	}
	return time.Time{}
}

func resolveTime(raw RawDocument, candidates ...string) time.Time {
	for _, key := range candidates {
		if v, ok := raw[key]; ok && v != nil {
			if parsed := parseWhen(v); !parsed.IsZero() {
				return parsed
			}
		}
	}
	return time.Time{}
}

func firstString(raw RawDocument, candidates ...string) string {
	return firstStringOf(map[string]any(raw), candidates...)
}

func firstStringOf(m map[string]any, candidates ...string) string {
	for _, key := range candidates {
		if v, ok := m[key]; ok && v != nil {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstInt(raw RawDocument, candidates ...string) int {
	for _, key := range candidates {
		if v, ok := raw[key]; ok && v != nil {
			if f, isNum := asFloat(v); isNum {
				return int(f)
			}
			// Un champ followers peut aussi être une liste d'ids.
			if items := asSlice(v); items != nil {
				return len(items)
			}
		}
	}
	return 0
}

func firstFloat(raw RawDocument, candidates ...string) float64 {
	for _, key := range candidates {
		if v, ok := raw[key]; ok && v != nil {
			if f, isNum := asFloat(v); isNum {
				return f
			}
		}
	}
	return 0
}

// SortedKeys est un petit utilitaire de debug/tests : l'inférence ne doit
// dépendre que de l'ensemble des clés, jamais de leur ordre d'itération.
func SortedKeys(raw RawDocument) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
