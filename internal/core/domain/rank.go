package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// RankMode sélectionne la courbe de récence et les boosts actifs.
// Les deux modes existent dans le legacy avec des courbes distinctes :
// le feed fenêtré à 3 jours, la recherche en décompte de jours simple.
type RankMode int

const (
	RankModeFeed RankMode = iota
	RankModeSearch
)

const (
	DefaultAgeWindowDays    = 3.0
	DefaultSocialMultiplier = 2.0

	weightLikes     = 0.1
	weightComments  = 0.2
	weightInterests = 0.15
	weightChoices   = 0.15

	// Plancher du dénominateur de normalisation de l'engagement : un batch
	// à faible engagement ne doit pas voir ses scores artificiellement
	// gonflés à 10.
	engagementNormFloor = 20.0

	upcomingEventBoost = 3.0

	boostTitleMatch       = 10.0
	boostDescriptionMatch = 8.0
	boostTagMatch         = 5.0
	boostLocationMatch    = 3.0
)

type RankOptions struct {
	Mode  RankMode
	Query string

	// AgeWindowDays : fenêtre de la courbe de récence en mode feed (3 par
	// défaut). Ignorée en mode recherche.
	AgeWindowDays float64

	// SocialMultiplier pondère l'engagement issu du graphe du viewer (2x
	// par défaut).
	SocialMultiplier float64

	// PrioritizeFollowers active la normalisation de l'engagement contre le
	// maximum du batch, pour que l'engagement brut n'écrase pas la récence.
	PrioritizeFollowers bool

	// Now fige l'horloge du classement ; zéro = time.Now().UTC().
	Now time.Time
}

func (o RankOptions) withDefaults() RankOptions {
	if o.AgeWindowDays <= 0 {
		o.AgeWindowDays = DefaultAgeWindowDays
	}
	if o.SocialMultiplier <= 0 {
		o.SocialMultiplier = DefaultSocialMultiplier
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	return o
}

// Rank classe un batch de documents canoniques : score décroissant, égalité
// départagée par dates.Created la plus récente puis par id croissant. L'ordre
// résultant est total, donc indépendant de l'ordre d'entrée. L'entrée n'est
// pas modifiée.
func Rank(docs []*CanonicalDocument, viewer ViewerContext, opts RankOptions) []*CanonicalDocument {
	opts = opts.withDefaults()

	out := make([]*CanonicalDocument, len(docs))
	copy(out, docs)

	batchMax := batchMaxEngagement(out)
	scores := make(map[*CanonicalDocument]float64, len(out))
	for _, d := range out {
		scores[d] = score(d, viewer, opts, batchMax)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if scores[out[i]] != scores[out[j]] {
			return scores[out[i]] > scores[out[j]]
		}
		if !out[i].Dates.Created.Equal(out[j].Dates.Created) {
			return out[i].Dates.Created.After(out[j].Dates.Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Score expose le calcul unitaire (tests et debug). batchMax est le maximum
// d'engagement brut du batch, planché à engagementNormFloor.
func Score(d *CanonicalDocument, viewer ViewerContext, opts RankOptions, batchMax float64) float64 {
	opts = opts.withDefaults()
	if batchMax < engagementNormFloor {
		batchMax = engagementNormFloor
	}
	return score(d, viewer, opts, batchMax)
}

func score(d *CanonicalDocument, viewer ViewerContext, opts RankOptions, batchMax float64) float64 {
	s := recencyFactor(d, opts)

	engagement := rawEngagement(d)
	if opts.Mode == RankModeFeed && opts.PrioritizeFollowers {
		// Normalisation contre le max du batch : le document le plus chaud
		// plafonne à 10 points, sur la même échelle que la récence.
		s += engagement / batchMax * 10
	} else {
		s += engagement
	}

	// Boost social : seules comptent les interactions venant du graphe
	// "following" du viewer, pas la popularité brute.
	followed := viewer.FollowsAnyOf(d.Interactions.Likes) +
		viewer.FollowsAnyOf(d.Interactions.Interests) +
		viewer.FollowsAnyOf(d.Interactions.Choices)
	s += opts.SocialMultiplier * float64(followed)

	if opts.Mode == RankModeSearch && opts.Query != "" {
		s += textBoost(d, opts.Query)
	}

	if opts.Mode == RankModeFeed && d.Kind == KindLeisureEvent &&
		!d.Dates.Start.IsZero() && d.Dates.Start.After(opts.Now) {
		s += upcomingEventBoost
	}

	return s
}

// recencyFactor : une date absente ou non parsable vaut "infiniment vieux",
// facteur 0, jamais une erreur.
func recencyFactor(d *CanonicalDocument, opts RankOptions) float64 {
	if d.Dates.Created.IsZero() {
		return 0
	}
	ageDays := opts.Now.Sub(d.Dates.Created).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	if opts.Mode == RankModeSearch {
		// Courbe recherche : un point perdu par jour, plancher à zéro.
		return math.Max(0, 10-ageDays)
	}
	return math.Max(0, 10-10*ageDays/opts.AgeWindowDays)
}

func rawEngagement(d *CanonicalDocument) float64 {
	return float64(d.Metrics.LikesCount)*weightLikes +
		float64(d.Metrics.CommentsCount)*weightComments +
		float64(d.Metrics.InterestsCount)*weightInterests +
		float64(d.Metrics.ChoicesCount)*weightChoices
}

func batchMaxEngagement(docs []*CanonicalDocument) float64 {
	max := engagementNormFloor
	for _, d := range docs {
		if e := rawEngagement(d); e > max {
			max = e
		}
	}
	return max
}

// textBoost : correspondance sous-chaîne insensible à la casse, pas de
// tokenisation (fidèle au matching regex naïf du legacy).
func textBoost(d *CanonicalDocument, query string) float64 {
	q := strings.ToLower(query)
	var boost float64
	if strings.Contains(strings.ToLower(d.Title), q) {
		boost += boostTitleMatch
	}
	if strings.Contains(strings.ToLower(d.Description), q) {
		boost += boostDescriptionMatch
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			boost += boostTagMatch
			break
		}
	}
	if d.Location != nil && strings.Contains(strings.ToLower(d.Location.Name), q) {
		boost += boostLocationMatch
	}
	return boost
}
