package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
)

const reconcileBatchSize = 100

// Reconcile rejoue les écritures miroir utilisateur échouées, par lots.
// Opération de maintenance de premier rang : l'incohérence n'est jamais
// laissée silencieuse, elle attend ici son rattrapage. Une tâche qui
// échoue encore reste en file pour le prochain passage.
func (e *Engine) Reconcile(ctx context.Context) (int, error) {
	tasks, err := e.repairs.Pending(ctx, reconcileBatchSize)
	if err != nil {
		return 0, fmt.Errorf("reading pending mirror repairs: %w", err)
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	repaired := 0
	for _, task := range tasks {
		var err error
		if task.Op == domain.MirrorOpRemove {
			err = e.users.RemoveFromList(ctx, task.UserID, task.Field, task.EntityID)
		} else {
			err = e.users.AddToList(ctx, task.UserID, task.Field, task.EntityID)
		}
		if err != nil {
			slog.Warn("🔁 Mirror repair still failing, keeping in queue",
				"task_id", task.ID, "user_id", task.UserID, "error", err)
			continue
		}

		if err := e.repairs.Remove(ctx, task.ID); err != nil {
			// La réparation a pris ; le retrait de file sera retenté, et le
			// rejeu est idempotent ($addToSet/$pull), donc sans danger.
			slog.Warn("⚠️ Failed to remove repaired task from queue", "task_id", task.ID, "error", err)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		slog.Info("✅ Mirror repairs applied", "count", repaired, "pending", len(tasks)-repaired)
	}
	return repaired, nil
}
