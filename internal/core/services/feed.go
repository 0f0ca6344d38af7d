package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/ports"
)

// fetchFn est la lecture effectuée sur chaque collection pendant le fan-out.
type fetchFn func(ctx context.Context, store ports.ContentStore) ([]domain.RawDocument, error)

// fanOut lance une lecture par collection en parallèle, chacune bornée par
// le timeout par collection. Une collection lente ou en panne ne bloque pas
// les autres : elle contribue simplement zéro document à cette requête.
// Retourne les documents bruts (ordre de priorité des sources préservé) et
// l'ensemble des kinds dont la source a échoué.
func (e *Engine) fanOut(ctx context.Context, sources []Source, fetch fetchFn) ([]domain.RawDocument, map[domain.Kind]bool) {
	type result struct {
		raws []domain.RawDocument
		err  error
	}

	results := make([]result, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, e.fanoutTimeout)
			defer cancel()
			raws, err := fetch(cctx, src.Store)
			results[i] = result{raws: raws, err: err}
		}(i, src)
	}
	wg.Wait()

	failed := make(map[domain.Kind]bool)
	var all []domain.RawDocument
	for i, res := range results {
		if res.err != nil {
			// Timeout compris : équivalent à "zéro résultat" pour cette
			// requête, le reste du feed continue.
			slog.Warn("⚠️ Collection read failed, degrading feed",
				"collection", sources[i].Store.Name(), "error", res.err)
			failed[sources[i].Kind] = true
			continue
		}
		all = append(all, res.raws...)
	}
	return all, failed
}

// BuildFeed : fan-out → normalisation → classement → pagination.
// Seul l'échec de TOUTES les collections est une erreur dure.
func (e *Engine) BuildFeed(ctx context.Context, req domain.FeedRequest, viewer domain.ViewerContext) (*domain.FeedPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	sources := e.selectSources(req.Kinds)
	if len(sources) == 0 {
		return &domain.FeedPage{Items: []*domain.CanonicalDocument{}}, nil
	}

	raws, failed := e.fanOut(ctx, sources, func(ctx context.Context, store ports.ContentStore) ([]domain.RawDocument, error) {
		return store.Recent(ctx, feedFetchLimit)
	})
	if len(failed) == len(sources) {
		return nil, domain.ErrUpstreamUnavailable
	}

	docs := e.normalizeAndFilter(raws, req.Kinds)

	ranked := domain.Rank(docs, viewer, domain.RankOptions{
		Mode:                domain.RankModeFeed,
		SocialMultiplier:    e.socialMultiplier,
		PrioritizeFollowers: req.PrioritizeFollowers,
	})

	return &domain.FeedPage{
		Items: paginate(ranked, offset, limit),
		// Dégradé seulement quand un filtre de type explicite a perdu sa
		// seule source ; sans filtre, une panne partielle = moins de
		// résultats, silencieusement.
		Degraded: degradedForFilter(req.Kinds, failed),
	}, nil
}

// Search pousse la requête sous-chaîne aux stores puis classe en mode
// recherche (boosts texte actifs). Total et totalPages reproduisent le
// contrat de pagination legacy.
func (e *Engine) Search(ctx context.Context, req domain.SearchRequest, viewer domain.ViewerContext) (*domain.SearchPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	sources := e.selectSources(req.Kinds)
	if len(sources) == 0 {
		return &domain.SearchPage{Results: []*domain.CanonicalDocument{}}, nil
	}

	raws, failed := e.fanOut(ctx, sources, func(ctx context.Context, store ports.ContentStore) ([]domain.RawDocument, error) {
		return store.Search(ctx, req.Query, searchFetchLimit)
	})
	if len(failed) == len(sources) {
		return nil, domain.ErrUpstreamUnavailable
	}

	docs := e.normalizeAndFilter(raws, req.Kinds)

	ranked := domain.Rank(docs, viewer, domain.RankOptions{
		Mode:             domain.RankModeSearch,
		Query:            req.Query,
		SocialMultiplier: e.socialMultiplier,
	})

	total := e.countMatches(ctx, sources, failed, req.Query)
	if total < int64(len(ranked)) {
		total = int64(len(ranked))
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)

	start := (page - 1) * limit
	return &domain.SearchPage{
		Results:    paginate(ranked, start, limit),
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (e *Engine) normalizeAndFilter(raws []domain.RawDocument, kinds []domain.Kind) []*domain.CanonicalDocument {
	var wanted map[domain.Kind]struct{}
	if len(kinds) > 0 {
		wanted = make(map[domain.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			wanted[k] = struct{}{}
		}
	}

	docs := make([]*domain.CanonicalDocument, 0, len(raws))
	for _, raw := range raws {
		doc := domain.Normalize(raw)
		// Filtrage applicatif sur le kind INFÉRÉ, pas sur la collection
		// d'origine : le corpus contient des documents mal rangés.
		if wanted != nil {
			if _, ok := wanted[doc.Kind]; !ok {
				continue
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

// countMatches somme les Count des sources encore vivantes ; un échec de
// comptage vaut zéro pour cette source (le plancher len(ranked) rattrape).
func (e *Engine) countMatches(ctx context.Context, sources []Source, failed map[domain.Kind]bool, query string) int64 {
	var total int64
	for _, src := range sources {
		if failed[src.Kind] {
			continue
		}
		n, err := src.Store.Count(ctx, query)
		if err != nil {
			slog.Warn("⚠️ Count failed", "collection", src.Store.Name(), "error", err)
			continue
		}
		total += n
	}
	return total
}

func degradedForFilter(kinds []domain.Kind, failed map[domain.Kind]bool) bool {
	for _, k := range kinds {
		if failed[k] {
			return true
		}
	}
	return false
}

func paginate(docs []*domain.CanonicalDocument, offset, limit int) []*domain.CanonicalDocument {
	if offset >= len(docs) {
		return []*domain.CanonicalDocument{}
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}
