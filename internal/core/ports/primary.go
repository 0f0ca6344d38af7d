package ports

import (
	"context"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
)

// --- DRIVING (Ce que le moteur expose à la couche routes) ---

type ContentEngine interface {
	// Locate résout un id opaque vers son document canonique, en sondant
	// les collections dans l'ordre de priorité legacy.
	// domain.ErrNotFound si aucune collection ne répond.
	Locate(ctx context.Context, id string) (*domain.CanonicalDocument, error)

	// ApplyInteraction applique une des six actions toggle (écriture
	// document puis miroir utilisateur, non transactionnelles).
	ApplyInteraction(ctx context.Context, entityID, userID string, action domain.Action) (*domain.InteractionResult, error)

	// BuildFeed : fan-out concurrent, normalisation, classement, pagination.
	BuildFeed(ctx context.Context, req domain.FeedRequest, viewer domain.ViewerContext) (*domain.FeedPage, error)

	// Search : même fan-out avec requête sous-chaîne poussée aux stores,
	// classement en mode recherche.
	Search(ctx context.Context, req domain.SearchRequest, viewer domain.ViewerContext) (*domain.SearchPage, error)

	// Reconcile rejoue les écritures miroir échouées. Retourne le nombre
	// de réparations abouties.
	Reconcile(ctx context.Context) (int, error)
}
