package ports

import (
	"context"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
)

// --- DRIVEN (Ce dont le moteur a besoin) ---

// ContentStore est le handle d'UNE collection legacy. Les primitives
// AddToSet/RemoveFromSet sont supposées idempotentes côté store
// ($addToSet/$pull chez Mongo).
type ContentStore interface {
	// Name identifie la collection dans les logs et le diagnostic de
	// dégradation du feed.
	Name() string

	// FindByID retourne domain.ErrNotFound quand l'id n'existe pas ici ;
	// le Locator passera à la collection suivante.
	FindByID(ctx context.Context, id string) (domain.RawDocument, error)

	// Recent retourne les documents les plus récents, bruts.
	Recent(ctx context.Context, limit int64) ([]domain.RawDocument, error)

	// Search pousse une correspondance sous-chaîne insensible à la casse
	// sur les champs cherchables de la collection.
	Search(ctx context.Context, query string, limit int64) ([]domain.RawDocument, error)

	// Count compte les documents matchant la même requête que Search.
	Count(ctx context.Context, query string) (int64, error)

	AddToSet(ctx context.Context, id string, set domain.InteractionSet, userID string) error
	RemoveFromSet(ctx context.Context, id string, set domain.InteractionSet, userID string) error
}

// UserStore donne accès au document utilisateur (base logique séparée) et à
// ses listes miroir.
type UserStore interface {
	FindByID(ctx context.Context, userID string) (domain.RawDocument, error)
	AddToList(ctx context.Context, userID, field, entityID string) error
	RemoveFromList(ctx context.Context, userID, field, entityID string) error
}

// EventPublisher publie en best-effort : un échec de publication se logge
// et ne fait jamais échouer la requête appelante.
type EventPublisher interface {
	PublishInteractionApplied(ctx context.Context, evt domain.InteractionEvent) error
	PublishMirrorFailed(ctx context.Context, task domain.MirrorRepair) error
}

// RepairQueue est la file durable des écritures miroir à rejouer.
type RepairQueue interface {
	Enqueue(ctx context.Context, task domain.MirrorRepair) error
	Pending(ctx context.Context, limit int64) ([]domain.MirrorRepair, error)
	Remove(ctx context.Context, taskID string) error
}
