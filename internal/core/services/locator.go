package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/ports"
)

// locateRaw sonde les collections dans l'ordre de priorité fixe
// (posts → restaurants → événements → producteurs) et court-circuite au
// premier hit. Si un id vit réellement dans deux collections c'est un défaut
// de modélisation du CRUD environnant : on rend quand même le premier match,
// les appelants dépendent de cette priorité legacy.
func (e *Engine) locateRaw(ctx context.Context, id string) (ports.ContentStore, domain.RawDocument, error) {
	for _, src := range e.sources {
		raw, err := src.Store.FindByID(ctx, id)
		if err == nil {
			return src.Store, raw, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		// Panne technique sur cette collection : l'id peut vivre plus loin
		// dans la chaîne, on continue de sonder.
		slog.Warn("⚠️ Collection probe failed", "collection", src.Store.Name(), "id", id, "error", err)
	}
	return nil, nil, domain.ErrNotFound
}

// Locate résout un id opaque vers sa forme canonique.
// NotFound est un résultat terminal valide, pas une panne.
func (e *Engine) Locate(ctx context.Context, id string) (*domain.CanonicalDocument, error) {
	_, raw, err := e.locateRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.Normalize(raw), nil
}
