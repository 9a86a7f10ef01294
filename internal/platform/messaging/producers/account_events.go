package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/bancario/account-service/internal/config"
)

// AccountEventProducer publishes account lifecycle events keyed by account id
type AccountEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewAccountEventProducer ensures the events topic exists and opens an async writer
func NewAccountEventProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AccountEventProducer, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("kafka events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for account event producer: %w", err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, cfg.EventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure events topic %s exists: %w", cfg.EventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write account events", "topic", cfg.EventsTopic, "error", err, "count", len(messages))
			}
		},
	}

	return newAccountEventProducer(logger, writer, cfg.EventsTopic), nil
}

func newAccountEventProducer(logger *slog.Logger, writer KafkaWriter, topic string) *AccountEventProducer {
	return &AccountEventProducer{logger: logger, writer: writer, topic: topic}
}

func (p *AccountEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal account event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload}); err != nil {
		p.logger.Error("Failed to publish account event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish account event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published account event", "topic", p.topic, "key", key)
	return nil
}

func (p *AccountEventProducer) Close() error {
	p.logger.Info("Closing account event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
