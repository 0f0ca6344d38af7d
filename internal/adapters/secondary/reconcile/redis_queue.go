package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
	"github.com/RemiBp/choice-app-backend-sub000/internal/core/ports"
)

const (
	pendingKey = "mirror_repair:pending"
	tasksKey   = "mirror_repair:tasks"
)

// RedisRepairQueue : file durable des écritures miroir à rejouer.
// Sorted set scoré par date d'échec (le balayage rejoue les plus anciennes
// d'abord) + hash id → payload JSON. Ce n'est PAS un cache : le moteur
// recalcule tout à chaque lecture, seule la dette d'écriture vit ici.
type RedisRepairQueue struct {
	client *redis.Client
}

func NewRedisRepairQueue(client *redis.Client) ports.RepairQueue {
	return &RedisRepairQueue{client: client}
}

func (q *RedisRepairQueue) Enqueue(ctx context.Context, task domain.MirrorRepair) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshalling repair task: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.HSet(ctx, tasksKey, task.ID, data)
	pipe.ZAdd(ctx, pendingKey, redis.Z{
		Score:  float64(task.FailedAt.Unix()),
		Member: task.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueueing repair task %s: %w", task.ID, err)
	}
	return nil
}

func (q *RedisRepairQueue) Pending(ctx context.Context, limit int64) ([]domain.MirrorRepair, error) {
	ids, err := q.client.ZRange(ctx, pendingKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading pending repairs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	payloads, err := q.client.HMGet(ctx, tasksKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading repair payloads: %w", err)
	}

	tasks := make([]domain.MirrorRepair, 0, len(payloads))
	for i, payload := range payloads {
		s, ok := payload.(string)
		if !ok {
			// Entrée orpheline (payload perdu) : on la purge du zset pour
			// ne pas la revoir à chaque balayage.
			slog.Warn("⚠️ Orphan repair entry, dropping", "task_id", ids[i])
			q.client.ZRem(ctx, pendingKey, ids[i])
			continue
		}
		var task domain.MirrorRepair
		if err := json.Unmarshal([]byte(s), &task); err != nil {
			slog.Warn("⚠️ Corrupt repair payload, dropping", "task_id", ids[i], "error", err)
			q.Remove(ctx, ids[i])
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (q *RedisRepairQueue) Remove(ctx context.Context, taskID string) error {
	pipe := q.client.Pipeline()
	pipe.ZRem(ctx, pendingKey, taskID)
	pipe.HDel(ctx, tasksKey, taskID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing repair task %s: %w", taskID, err)
	}
	return nil
}
