package fillpublisher

import (
	"context"

	"github.com/segmentio/kafka-go"

	feedv1 "github.com/tickerforge/book-engine/internal/domain/feed/v1"
	"github.com/tickerforge/book-engine/pkg/config"
	"github.com/tickerforge/book-engine/pkg/errors"
	"github.com/tickerforge/book-engine/pkg/logger"
)

// Publisher writes fill events to the fill topic.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Interface
}

// NewPublisher creates a Kafka publisher for fill events.
func NewPublisher(cfg config.FillPublisherConfig, log logger.Interface) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishFillEvent publishes one aggressor's fills to the fill topic.
func (p *Publisher) PublishFillEvent(ctx context.Context, event *feedv1.FillEventPayload) error {
	msg := kafka.Message{
		Key:   []byte(event.Symbol),
		Value: feedv1.ToBytes(event),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "fillEvent", Value: event},
		)
		return errors.NewTracer("failed to publish fill event").Wrap(err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
