package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/elections/timeline/domain/entities"
	"agora/contexts/elections/timeline/ports"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "agora:timeline:stage-changes"

// Notifier carries stage changes over Redis pub/sub so every API replica
// re-evaluates its timeline snapshot.
type Notifier struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

func NewNotifier(client redis.UniversalClient, channel string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	return &Notifier{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

type stageChangeMessage struct {
	StageID    int64     `json:"stage_id"`
	Kind       string    `json:"kind"`
	Category   string    `json:"category"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (n *Notifier) PublishStageChange(ctx context.Context, change entities.StageChange) error {
	payload, err := encodeChange(change)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Error("stage change publish failed",
			"event", "timeline_redis_publish_failed",
			"module", "elections/timeline",
			"layer", "adapter",
			"channel", n.channel,
			"stage_id", change.StageID,
			"error", err.Error(),
		)
		return fmt.Errorf("publish stage change: %w", err)
	}
	return nil
}

// SubscribeStageChanges returns once the subscription is confirmed and keeps
// delivering in the background until ctx is cancelled.
func (n *Notifier) SubscribeStageChanges(
	ctx context.Context,
	handler func(context.Context, entities.StageChange) error,
) error {
	pubsub := n.client.Subscribe(ctx, n.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe stage changes: %w", err)
	}

	go func() {
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change, err := decodeChange([]byte(msg.Payload))
				if err != nil {
					n.logger.Warn("stage change decode failed",
						"event", "timeline_redis_decode_failed",
						"module", "elections/timeline",
						"layer", "adapter",
						"channel", n.channel,
						"error", err.Error(),
					)
					continue
				}
				if err := handler(ctx, change); err != nil && !errors.Is(err, context.Canceled) {
					n.logger.Error("stage change handler failed",
						"event", "timeline_redis_handler_failed",
						"module", "elections/timeline",
						"layer", "adapter",
						"stage_id", change.StageID,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func encodeChange(change entities.StageChange) ([]byte, error) {
	return json.Marshal(stageChangeMessage{
		StageID:    change.StageID,
		Kind:       string(change.Kind),
		Category:   string(change.Category),
		OccurredAt: change.OccurredAt.UTC(),
	})
}

func decodeChange(payload []byte) (entities.StageChange, error) {
	var msg stageChangeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return entities.StageChange{}, err
	}
	kind := entities.StageChangeKind(msg.Kind)
	if kind != entities.StageChangeUpserted && kind != entities.StageChangeDeleted {
		return entities.StageChange{}, fmt.Errorf("unknown stage change kind %q", msg.Kind)
	}
	return entities.StageChange{
		StageID:    msg.StageID,
		Kind:       kind,
		Category:   entities.Category(msg.Category),
		OccurredAt: msg.OccurredAt.UTC(),
	}, nil
}

var _ ports.ChangeNotifier = (*Notifier)(nil)
var _ ports.ChangeSubscriber = (*Notifier)(nil)
