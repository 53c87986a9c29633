package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	contractsv1 "agora/contracts/events/v1"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes outbox envelopes to the broker. Records are keyed by the
// envelope partition key so events of one election stay ordered.
type Kafka struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, logger: logger}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(event.PartitionKey),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		k.logger.Error("kafka publish failed",
			"event", "kafka_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Health pings the seed brokers.
func (k *Kafka) Health(ctx context.Context) error {
	return k.client.Ping(ctx)
}

func (k *Kafka) Close() {
	if k != nil && k.client != nil {
		k.client.Close()
	}
}
