package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "agora/contexts/elections/balloting/application"
	"agora/contexts/elections/balloting/ports"
)

// OutboxRelay forwards ballot and tally events to the broker. Topics are the
// event type behind an optional prefix, e.g. "agora.ballot.cast".
type OutboxRelay struct {
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	TopicPrefix string
	BatchSize   int
	Logger      *slog.Logger
}

// RunOnce drains one batch in creation order. A row is marked published only
// after the broker accepted it, and the batch halts at the first failure so
// ordering is preserved on the next cycle.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("ballot outbox read failed",
			"event", "balloting_outbox_read_failed",
			"module", "elections/balloting",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	published := 0
	for _, row := range rows {
		if err := r.relay(ctx, row); err != nil {
			logger.Error("ballot outbox relay halted",
				"event", "balloting_outbox_relay_halted",
				"module", "elections/balloting",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", row.EventType,
				"published_count", published,
				"error", err.Error(),
			)
			return err
		}
		published++
	}
	if published > 0 {
		logger.Info("ballot outbox relayed",
			"event", "balloting_outbox_relayed",
			"module", "elections/balloting",
			"layer", "worker",
			"published_count", published,
		)
	}
	return nil
}

func (r OutboxRelay) relay(ctx context.Context, row ports.OutboxMessage) error {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return err
	}
	eventType := envelope.EventType
	if eventType == "" {
		eventType = row.EventType
	}
	topic := eventType
	if r.TopicPrefix != "" {
		topic = r.TopicPrefix + "." + eventType
	}
	if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
		return err
	}
	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}
	return r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now)
}
