package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
)

const (
	SubjectInteractionApplied = "interaction.applied"
	SubjectMirrorFailed       = "interaction.mirror_failed"
)

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

func (p *NatsPublisher) PublishInteractionApplied(ctx context.Context, evt domain.InteractionEvent) error {
	return p.publish(ctx, SubjectInteractionApplied, evt, "entity_id", evt.EntityID)
}

func (p *NatsPublisher) PublishMirrorFailed(ctx context.Context, task domain.MirrorRepair) error {
	return p.publish(ctx, SubjectMirrorFailed, task, "task_id", task.ID)
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, payload any, logKey, logVal string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// Propagation du contexte de trace dans les headers NATS : les
	// consommateurs aval raccrochent leur span à la requête d'origine.
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	slog.Debug("📢 Publishing event", "subject", subject, logKey, logVal)
	return p.nc.PublishMsg(msg)
}
