package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/tickerforge/book-engine/internal/domain/snapshot/v1"
	"github.com/tickerforge/book-engine/pkg/errors"
	logger "github.com/tickerforge/book-engine/pkg/logger"
	"github.com/tickerforge/book-engine/pkg/redis"
)

// Store persists book snapshots in Redis, keyed by symbol.
type Store struct {
	symbol      string
	logger      logger.Interface
	redisclient redis.Client
}

// NewSnapshotStore creates a snapshot store for one symbol.
func NewSnapshotStore(redisclient redis.Client, symbol string, log logger.Interface) *Store {
	return &Store{
		symbol:      symbol,
		redisclient: redisclient,
		logger:      log,
	}
}

func (s *Store) key() string {
	return "book:snapshot:" + s.symbol
}

// Store serializes the snapshot and writes it to Redis.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: s.symbol,
		})
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.key(), buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: s.symbol,
		}, logger.Field{
			Key:   "action",
			Value: "store snapshot",
		})
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for %s", s.symbol), logger.Field{
		Key:   "symbol",
		Value: s.symbol,
	}, logger.Field{
		Key:   "orderOffset",
		Value: snapshot.OrderOffset,
	}, logger.Field{
		Key:   "restingOrders",
		Value: len(snapshot.BookState.Orders),
	})
	return nil
}

// LoadStore reads the latest snapshot from Redis. A missing snapshot is
// not an error; it returns nil so the caller starts from an empty book.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key())
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: s.symbol,
		}, logger.Field{
			Key:   "action",
			Value: "load snapshot",
		})
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for %s", s.symbol), logger.Field{
			Key:   "symbol",
			Value: s.symbol,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: s.symbol,
		}, logger.Field{
			Key:   "action",
			Value: "unmarshal snapshot",
		})
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
