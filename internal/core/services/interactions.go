package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
)

// ApplyInteraction est la machine à états du cœur. Protocole à deux phases
// applicatif, SANS transaction inter-bases :
//
//  1. écriture primaire côté document ($addToSet/$pull, idempotente) ;
//  2. en cas de succès seulement, écriture miroir côté utilisateur.
//
// Un échec du miroir laisse le système transitoirement incohérent : on le
// logge comme incohérence récupérable, on met la réparation en file, et la
// requête rapporte quand même le succès — l'effet primaire a commité.
func (e *Engine) ApplyInteraction(ctx context.Context, entityID, userID string, action domain.Action) (*domain.InteractionResult, error) {
	if !action.Valid() {
		return nil, domain.ErrInvalidAction
	}

	store, raw, err := e.locateRaw(ctx, entityID)
	if err != nil {
		return nil, err
	}
	doc := domain.Normalize(raw)
	if doc.ID == "" {
		doc.ID = entityID
	}

	target := action.TargetSet()
	before := doc.Interactions.Set(target)
	wasPresent := domain.SetHas(before, userID)

	// 1. Écriture primaire (source of truth).
	if action.IsRemoval() {
		err = store.RemoveFromSet(ctx, doc.ID, target, userID)
	} else {
		err = store.AddToSet(ctx, doc.ID, target, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("applying %s on %s/%s: %w", action, store.Name(), doc.ID, err)
	}

	// État post-écriture calculé en immutable, jamais relu avec dérive :
	// les compteurs rendus valent exactement la taille des ensembles.
	var after []string
	if action.IsRemoval() {
		after = domain.SetRemove(before, userID)
	} else {
		after = domain.SetAdd(before, userID)
	}
	doc.Interactions = doc.Interactions.WithSet(target, after)
	doc.RecomputeMetrics()

	// 2. Écriture miroir utilisateur (base logique séparée).
	e.mirrorWrite(ctx, userID, action, doc.ID)

	// Effet de bord legacy : un like ABSENT→PRESENT sur un événement ou un
	// producteur référençant un producteur ajoute un interest implicite sur
	// l'entité référencée. Uniquement à l'aller — jamais défait au unlike.
	if action == domain.ActionLike && !wasPresent &&
		(doc.Kind == domain.KindLeisureEvent || doc.Kind == domain.KindLeisureProducer) &&
		doc.ProducerRef != "" {
		e.applyImplicitInterest(ctx, doc.ProducerRef, userID)
	}

	result := &domain.InteractionResult{
		EntityID: doc.ID,
		Kind:     doc.Kind,
		UpdatedCounts: domain.InteractionCounts{
			Likes:     doc.Metrics.LikesCount,
			Interests: doc.Metrics.InterestsCount,
			Choices:   doc.Metrics.ChoicesCount,
		},
		IsActiveAfter: !action.IsRemoval(),
	}

	// Publication best-effort : on logge, on ne fait pas échouer la requête.
	evt := domain.InteractionEvent{
		EntityID: doc.ID,
		Kind:     doc.Kind,
		UserID:   userID,
		Action:   action,
		Counts:   result.UpdatedCounts,
		At:       time.Now().UTC(),
	}
	if err := e.publisher.PublishInteractionApplied(ctx, evt); err != nil {
		slog.Error("❌ Failed to publish interaction event", "entity_id", doc.ID, "error", err)
	}

	return result, nil
}

// mirrorWrite tente l'écriture miroir ; en cas d'échec, trace l'incohérence
// et met la réparation en file pour le balayage de réconciliation.
func (e *Engine) mirrorWrite(ctx context.Context, userID string, action domain.Action, entityID string) {
	field := action.MirrorField()

	var err error
	if action.IsRemoval() {
		err = e.users.RemoveFromList(ctx, userID, field, entityID)
	} else {
		err = e.users.AddToList(ctx, userID, field, entityID)
	}
	if err == nil {
		return
	}

	op := domain.MirrorOpAdd
	if action.IsRemoval() {
		op = domain.MirrorOpRemove
	}
	task := domain.MirrorRepair{
		ID:       uuid.NewString(),
		UserID:   userID,
		Field:    field,
		EntityID: entityID,
		Op:       op,
		FailedAt: time.Now().UTC(),
	}

	slog.Warn("⚠️ Recoverable inconsistency: user mirror write failed",
		"user_id", userID, "field", field, "entity_id", entityID, "error", err)

	if qErr := e.repairs.Enqueue(ctx, task); qErr != nil {
		// Double panne : l'incohérence reste visible dans les logs, le
		// balayage ne la verra pas. Documenté comme trou connu.
		slog.Error("❌ Failed to enqueue mirror repair", "task_id", task.ID, "error", qErr)
	}
	if pErr := e.publisher.PublishMirrorFailed(ctx, task); pErr != nil {
		slog.Error("❌ Failed to publish mirror_failed event", "task_id", task.ID, "error", pErr)
	}
}

// applyImplicitInterest applique l'interest croisé (document référencé +
// miroir utilisateur). Toute panne ici se logge sans remonter : l'action
// principale a déjà réussi.
func (e *Engine) applyImplicitInterest(ctx context.Context, refID, userID string) {
	store, raw, err := e.locateRaw(ctx, refID)
	if err != nil {
		slog.Warn("⚠️ Implicit interest target not found", "ref_id", refID, "error", err)
		return
	}
	ref := domain.Normalize(raw)
	if ref.ID == "" {
		ref.ID = refID
	}

	if err := store.AddToSet(ctx, ref.ID, domain.SetInterests, userID); err != nil {
		slog.Warn("⚠️ Implicit interest write failed", "ref_id", ref.ID, "error", err)
		return
	}
	if err := e.users.AddToList(ctx, userID, domain.MirrorInterests, ref.ID); err != nil {
		slog.Warn("⚠️ Implicit interest mirror failed", "user_id", userID, "ref_id", ref.ID, "error", err)
	}
}
