package orderreader

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	feedv1 "github.com/tickerforge/book-engine/internal/domain/feed/v1"
	"github.com/tickerforge/book-engine/pkg/config"
	"github.com/tickerforge/book-engine/pkg/logger"
)

// Reader consumes order-flow payloads from the order topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

// NewReader creates a Kafka reader for the order topic. It returns an
// implementation of the OrderReader interface.
func NewReader(cfg config.KafkaConfig, log logger.Interface) Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset positions the reader in the order stream, used after a
// snapshot restore to resume at the snapshot's offset.
func (r Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads one message from the order topic and parses it as
// an order payload, stamping the payload with the stream offset.
func (r Reader) ReadMessage(ctx context.Context) (kafka.Message, *feedv1.OrderPayload, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{Offset: 0}, nil, err
	}

	var order feedv1.OrderPayload
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		r.logError(err, "UnmarshalOrder")
		return kafka.Message{Offset: 0}, nil, err
	}

	r.logger.Debug("ReadMessage",
		logger.Field{
			Key:   "orderID",
			Value: order.OrderID,
		},
		logger.Field{
			Key:   "type",
			Value: order.Type,
		},
		logger.Field{
			Key:   "side",
			Value: order.Side,
		},
		logger.Field{
			Key:   "price",
			Value: order.Price,
		},
		logger.Field{
			Key:   "volume",
			Value: order.Volume,
		},
	)

	order.Offset = msg.Offset

	return msg, &order, nil
}

// Close properly closes the Kafka reader.
func (r Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}
