package domain

import "time"

// Kind identifie le type métier d'un document, déduit de la forme du
// document brut (les collections legacy ne stockent pas de discriminant).
type Kind string

const (
	KindPost            Kind = "post"
	KindRestaurant      Kind = "restaurant"
	KindLeisureEvent    Kind = "leisure_event"
	KindLeisureProducer Kind = "leisure_producer"
)

// RawDocument est un document tel que décodé depuis Mongo (bson.M) ou
// depuis du JSON brut. Toute la normalisation part de cette forme.
type RawDocument map[string]any

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type Location struct {
	Name        string
	Address     string
	Coordinates *Coordinates
}

type Author struct {
	ID     string
	Name   string
	Avatar string
}

// Dates regroupe les repères temporels du document.
// Start/End/Updated valent le zéro de time.Time quand absents.
type Dates struct {
	Created time.Time
	Start   time.Time
	End     time.Time
	Updated time.Time
}

type Comment struct {
	ID         string
	Content    string
	AuthorID   string
	AuthorName string
	CreatedAt  time.Time
}

// InteractionSets porte les trois ensembles d'interactions sociales.
// Ce sont des ensembles : pas de doublon, l'appartenance compte, pas l'ordre
// (l'ordre d'insertion source est conservé pour le déterminisme).
type InteractionSets struct {
	Likes     []string
	Interests []string
	Choices   []string
}

// Metrics est entièrement dérivé à la lecture : les compteurs d'interaction
// valent toujours la taille de l'ensemble correspondant, jamais un scalaire
// stocké qui pourrait dériver.
type Metrics struct {
	Views          int
	LikesCount     int
	InterestsCount int
	ChoicesCount   int
	CommentsCount  int
	FollowersCount int
	Rating         float64
}

// CanonicalDocument est la forme unique dans laquelle tout document des
// quatre collections est projeté. Jamais persisté : recalculé à chaque
// lecture depuis le document hétérogène sous-jacent.
type CanonicalDocument struct {
	ID           string
	Kind         Kind
	Title        string
	Description  string
	Location     *Location
	Media        []string
	Tags         []string
	Dates        Dates
	Author       Author
	Interactions InteractionSets
	Metrics      Metrics
	Comments     []Comment
	Metadata     map[string]any

	// ProducerRef référence l'entité productrice (producer_id legacy)
	// pour les événements et producteurs. Vide sinon.
	ProducerRef string
}

// InteractionSet nomme un des trois ensembles côté document.
type InteractionSet string

const (
	SetLikes     InteractionSet = "likes"
	SetInterests InteractionSet = "interests"
	SetChoices   InteractionSet = "choices"
)

// Set retourne l'ensemble demandé (copie interdite : lecture seule).
func (s InteractionSets) Set(name InteractionSet) []string {
	switch name {
	case SetLikes:
		return s.Likes
	case SetInterests:
		return s.Interests
	case SetChoices:
		return s.Choices
	}
	return nil
}

// WithSet retourne une copie des ensembles avec celui demandé remplacé.
// Les interactions sont appliquées en immutable : on ne mute jamais en place.
func (s InteractionSets) WithSet(name InteractionSet, members []string) InteractionSets {
	switch name {
	case SetLikes:
		s.Likes = members
	case SetInterests:
		s.Interests = members
	case SetChoices:
		s.Choices = members
	}
	return s
}

// SetHas teste l'appartenance.
func SetHas(set []string, member string) bool {
	for _, m := range set {
		if m == member {
			return true
		}
	}
	return false
}

// SetAdd retourne un nouvel ensemble contenant member.
// Idempotent : si member est déjà présent, l'ensemble est rendu tel quel.
func SetAdd(set []string, member string) []string {
	if SetHas(set, member) {
		return set
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set...)
	return append(out, member)
}

// SetRemove retourne un nouvel ensemble sans member.
// Retirer un absent est un no-op, pas une erreur.
func SetRemove(set []string, member string) []string {
	if !SetHas(set, member) {
		return set
	}
	out := make([]string, 0, len(set)-1)
	for _, m := range set {
		if m != member {
			out = append(out, m)
		}
	}
	return out
}

// RecomputeMetrics réaligne les compteurs dérivés sur les ensembles.
// À appeler après toute modification des InteractionSets.
func (d *CanonicalDocument) RecomputeMetrics() {
	d.Metrics.LikesCount = len(d.Interactions.Likes)
	d.Metrics.InterestsCount = len(d.Interactions.Interests)
	d.Metrics.ChoicesCount = len(d.Interactions.Choices)
	if len(d.Comments) > 0 {
		d.Metrics.CommentsCount = len(d.Comments)
	}
}
