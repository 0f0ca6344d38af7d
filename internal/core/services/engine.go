package services

import (
	"time"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/ports"
)

const (
	// Volume lu par collection lors du fan-out, avant classement global.
	feedFetchLimit   = 100
	searchFetchLimit = 200

	defaultFeedLimit    = 30
	defaultSearchLimit  = 20
	defaultFanoutWindow = 3 * time.Second
)

// Source associe un store de collection au kind dont cette collection est
// la source principale. L'ordre du slice EST l'ordre de priorité du Locator.
type Source struct {
	Store ports.ContentStore
	Kind  domain.Kind
}

// Options règle les boutons du moteur ; les zéros prennent les défauts.
type Options struct {
	// FanoutTimeout borne chaque lecture de collection du fan-out pour
	// qu'une collection qui pend ne bloque pas tout le feed.
	FanoutTimeout time.Duration

	// SocialMultiplier est passé tel quel au ranker (2x par défaut).
	SocialMultiplier float64
}

// Engine est le cœur : Locator, Toggle Engine, Feed Assembler, Reconciler.
// Aucun état mutable partagé entre requêtes : chaque appel refait ses
// lectures et recalcule normalisation et classement.
type Engine struct {
	sources          []Source
	users            ports.UserStore
	publisher        ports.EventPublisher
	repairs          ports.RepairQueue
	fanoutTimeout    time.Duration
	socialMultiplier float64
}

func NewEngine(sources []Source, users ports.UserStore, publisher ports.EventPublisher, repairs ports.RepairQueue, opts Options) *Engine {
	if opts.FanoutTimeout <= 0 {
		opts.FanoutTimeout = defaultFanoutWindow
	}
	if opts.SocialMultiplier <= 0 {
		opts.SocialMultiplier = domain.DefaultSocialMultiplier
	}
	return &Engine{
		sources:          sources,
		users:            users,
		publisher:        publisher,
		repairs:          repairs,
		fanoutTimeout:    opts.FanoutTimeout,
		socialMultiplier: opts.SocialMultiplier,
	}
}

// selectSources restreint le fan-out aux collections sources des kinds
// demandés ; filtre vide = toutes, dans l'ordre de priorité.
func (e *Engine) selectSources(kinds []domain.Kind) []Source {
	if len(kinds) == 0 {
		return e.sources
	}
	wanted := make(map[domain.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		wanted[k] = struct{}{}
	}
	out := make([]Source, 0, len(e.sources))
	for _, src := range e.sources {
		if _, ok := wanted[src.Kind]; ok {
			out = append(out, src)
		}
	}
	return out
}
