package orderreaderv1

import (
	"context"

	"github.com/segmentio/kafka-go"

	feedv1 "github.com/tickerforge/book-engine/internal/domain/feed/v1"
)

// OrderReader defines the interface for reading order flow from a stream.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreaderv1_mock
type OrderReader interface {
	// ReadMessage reads a message and returns it with the parsed order payload
	ReadMessage(ctx context.Context) (kafka.Message, *feedv1.OrderPayload, error)
	// SetOffset sets the offset for the reader
	SetOffset(offset int64) error
	// Close closes the reader
	Close() error
}
