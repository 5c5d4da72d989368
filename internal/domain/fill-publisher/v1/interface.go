package fillpublisherv1

import (
	"context"

	feedv1 "github.com/tickerforge/book-engine/internal/domain/feed/v1"
)

// Publisher defines the interface for publishing fill events downstream.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=fillpublisherv1_mock
type Publisher interface {
	PublishFillEvent(ctx context.Context, event *feedv1.FillEventPayload) error
}
