package engine

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"

	bookv1 "github.com/tickerforge/book-engine/internal/domain/book/v1"
	feedv1 "github.com/tickerforge/book-engine/internal/domain/feed/v1"
	fillpublisherv1 "github.com/tickerforge/book-engine/internal/domain/fill-publisher/v1"
	orderreaderv1 "github.com/tickerforge/book-engine/internal/domain/order-reader/v1"
	snapshotv1 "github.com/tickerforge/book-engine/internal/domain/snapshot/v1"
	"github.com/tickerforge/book-engine/internal/usecase/book"
	"github.com/tickerforge/book-engine/pkg/config"
	"github.com/tickerforge/book-engine/pkg/errors"
	"github.com/tickerforge/book-engine/pkg/logger"
)

// Engine drives one book from the order stream: restore from the last
// snapshot, consume order payloads, apply them, publish the resulting
// fills, and snapshot periodically by offset delta and by timer.
type Engine struct {
	book          *book.Book
	orderReader   orderreaderv1.OrderReader
	snapshotStore snapshotv1.Store
	fillPublisher fillpublisherv1.Publisher
	logger        logger.Interface
	cfg           *config.Config
	opts          *Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                 sync.Mutex
	orderOffset        int64
	lastSnapshotOffset int64
}

// NewEngine wires an engine around one book and its collaborators.
// Snapshot cadence comes from the config when set, defaults otherwise.
func NewEngine(
	b *book.Book,
	orderReader orderreaderv1.OrderReader,
	snapshotStore snapshotv1.Store,
	fillPublisher fillpublisherv1.Publisher,
	log logger.Interface,
	cfg *config.Config,
) *Engine {
	opts := DefaultEngineOptions()
	if cfg != nil {
		if cfg.SnapshotInterval > 0 {
			opts.SnapshotInterval = cfg.SnapshotInterval
		}
		if cfg.SnapshotOffsetDelta > 0 {
			opts.SnapshotOffsetDelta = cfg.SnapshotOffsetDelta
		}
	}

	return &Engine{
		book:          b,
		orderReader:   orderReader,
		snapshotStore: snapshotStore,
		fillPublisher: fillPublisher,
		logger:        log,
		cfg:           cfg,
		opts:          opts,
		orderOffset:   -1,
	}
}

// Start restores the book from the latest snapshot and consumes the
// order stream until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := e.restore(e.ctx); err != nil {
		return err
	}

	e.wg.Add(1)
	go e.snapshotLoop()

	return e.run()
}

// Stop cancels the consume loop and closes the reader.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()

	if err := e.orderReader.Close(); err != nil {
		e.logger.Error(err, logger.Field{Key: "operation", Value: "Stop"})
	}
}

func (e *Engine) restore(ctx context.Context) error {
	snap, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return errors.NewTracer(string(errors.EngineRestoreError)).Wrap(err)
	}
	if snap == nil {
		e.logger.Info("No snapshot found, starting from an empty book",
			logger.Field{Key: "symbol", Value: e.book.Symbol()},
		)
		return nil
	}

	if err := e.book.Restore(snap); err != nil {
		return errors.NewTracer(string(errors.EngineRestoreError)).Wrap(err)
	}

	e.mu.Lock()
	e.orderOffset = snap.OrderOffset
	e.lastSnapshotOffset = snap.OrderOffset
	e.mu.Unlock()

	if err := e.orderReader.SetOffset(snap.OrderOffset + 1); err != nil {
		return errors.NewTracer(string(errors.EngineRestoreError)).Wrap(err)
	}

	e.logger.Info("Book restored from snapshot",
		logger.Field{Key: "symbol", Value: snap.Symbol},
		logger.Field{Key: "orderOffset", Value: snap.OrderOffset},
		logger.Field{Key: "restingOrders", Value: len(snap.BookState.Orders)},
	)
	return nil
}

func (e *Engine) run() error {
	for {
		select {
		case <-e.ctx.Done():
			return e.ctx.Err()
		default:
		}

		msg, payload, err := e.orderReader.ReadMessage(e.ctx)
		if err != nil {
			if e.ctx.Err() != nil {
				return e.ctx.Err()
			}
			// Persistent broker failures must not spin the loop.
			select {
			case <-e.ctx.Done():
				return e.ctx.Err()
			case <-time.After(readRetryDelay):
			}
			continue
		}

		e.process(msg, payload)
	}
}

func (e *Engine) process(msg kafka.Message, payload *feedv1.OrderPayload) {
	fills, err := e.apply(msg, payload)
	if err != nil {
		// A rejected order never partially mutates the book; log and
		// keep consuming.
		e.logger.Error(err,
			logger.Field{Key: "orderID", Value: payload.OrderID},
			logger.Field{Key: "type", Value: payload.Type},
			logger.Field{Key: "offset", Value: msg.Offset},
		)
	}

	if len(fills) > 0 {
		e.publishFills(msg, payload, fills)
	}

	e.mu.Lock()
	e.orderOffset = msg.Offset
	delta := e.orderOffset - e.lastSnapshotOffset
	e.mu.Unlock()

	if delta >= e.opts.SnapshotOffsetDelta {
		e.snapshot()
	}
}

// apply dispatches one payload to the book. An empty order id on a
// resting order type is replaced with a fresh ULID so the order stays
// addressable for cancels.
func (e *Engine) apply(msg kafka.Message, p *feedv1.OrderPayload) ([]bookv1.Fill, error) {
	timestamp := p.Timestamp
	if timestamp == 0 {
		timestamp = msg.Time.UnixNano()
	}

	side := p.BookSide()
	orderID := p.OrderID

	switch p.OrderType() {
	case bookv1.OrderTypeMarket:
		return e.book.Market(side, p.Volume, timestamp)
	case bookv1.OrderTypeLimit:
		if orderID == "" {
			orderID = ulid.Make().String()
		}
		return e.book.Limit(side, p.Price, p.Volume, timestamp, false, orderID)
	case bookv1.OrderTypeLimitIOC:
		return e.book.ImmediateOrCancel(side, p.Price, p.Volume, timestamp, orderID)
	case bookv1.OrderTypePostOnly:
		if orderID == "" {
			orderID = ulid.Make().String()
		}
		return e.book.MakerOrCancel(side, p.Price, p.Volume, timestamp, orderID)
	case bookv1.OrderTypeCancel:
		return nil, e.book.Cancel(side, orderID)
	default:
		return nil, errors.NewErrorDetails("unknown order type", string(errors.EngineUnknownOrderType), "type")
	}
}

func (e *Engine) publishFills(msg kafka.Message, p *feedv1.OrderPayload, fills []bookv1.Fill) {
	event := &feedv1.FillEventPayload{
		Symbol:       e.book.Symbol(),
		TakerOrderID: p.OrderID,
		TakerSide:    p.BookSide(),
		Fills:        fills,
		Timestamp:    e.book.LastEventTime(),
		Offset:       msg.Offset,
	}

	if err := e.fillPublisher.PublishFillEvent(e.ctx, event); err != nil {
		e.logger.Error(err,
			logger.Field{Key: "takerOrderID", Value: p.OrderID},
			logger.Field{Key: "fills", Value: len(fills)},
		)
	}
}

func (e *Engine) snapshotLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.opts.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.snapshot()
		}
	}
}

func (e *Engine) snapshot() {
	snap := e.book.Snapshot()

	e.mu.Lock()
	snap.OrderOffset = e.orderOffset
	e.mu.Unlock()

	if err := e.snapshotStore.Store(e.ctx, snap); err != nil {
		e.logger.Error(err, logger.Field{Key: "operation", Value: "snapshot"})
		return
	}

	e.mu.Lock()
	e.lastSnapshotOffset = snap.OrderOffset
	e.mu.Unlock()
}
