package book

import (
	"fmt"
	"strconv"
	"sync"

	bookv1 "github.com/tickerforge/book-engine/internal/domain/book/v1"
	snapshotv1 "github.com/tickerforge/book-engine/internal/domain/snapshot/v1"
)

// Book is a single-symbol limit order book. One mutex guards each
// submit-match-refresh sequence as a unit, so queries never observe a
// partially applied match. Timestamps are supplied by the caller on
// every mutating call; the book never reads the wall clock.
type Book struct {
	mu sync.RWMutex

	symbol        string
	orderSeq      int64
	lastEventTime int64
	bids          *bookv1.SideBook
	asks          *bookv1.SideBook
	stats         bookv1.Stats
}

// New creates an empty book for the given symbol.
func New(symbol string) *Book {
	b := &Book{
		symbol: symbol,
		bids:   bookv1.NewSideBook(bookv1.SideBid),
		asks:   bookv1.NewSideBook(bookv1.SideAsk),
	}
	b.refresh()
	return b
}

// Symbol returns the symbol this book trades.
func (b *Book) Symbol() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.symbol
}

// OrderSeq returns the monotonic order counter.
func (b *Book) OrderSeq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.orderSeq
}

// LastEventTime returns the timestamp of the last accepted order.
func (b *Book) LastEventTime() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastEventTime
}

// Stats returns the derived analytics as of the last mutation.
func (b *Book) Stats() bookv1.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}

// Bids returns the bid levels in priority order (highest price first).
func (b *Book) Bids() []*bookv1.Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.Levels()
}

// Asks returns the ask levels in priority order (lowest price first).
func (b *Book) Asks() []*bookv1.Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.Levels()
}

// BidDepth returns the total resting bid volume across all levels.
func (b *Book) BidDepth() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.Depth()
}

// AskDepth returns the total resting ask volume across all levels.
func (b *Book) AskDepth() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.Depth()
}

// Market submits a market order: the full volume walks the opposite
// side unrestricted and any remainder is discarded, never rested.
func (b *Book) Market(side bookv1.Side, volume float64, timestamp int64) ([]bookv1.Fill, error) {
	if volume <= 0 {
		return nil, fmt.Errorf("%w: got %f", bookv1.ErrInvalidVolume, volume)
	}
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %q", bookv1.ErrInvalidSide, side)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, fills := b.opposite(side).FillMarket(volume)
	b.finishMutation(timestamp)

	return fills, nil
}

// Limit submits a (possibly marketable) limit order. Crossing volume is
// matched against the opposite side first; the leftover rests at price
// unless cancel is set, which gives immediate-or-cancel semantics.
// An empty orderID is replaced by the book's order counter.
func (b *Book) Limit(side bookv1.Side, price, volume float64, timestamp int64, cancel bool, orderID string) ([]bookv1.Fill, error) {
	if err := validateLimitArgs(side, price, volume); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.limitLocked(side, price, volume, timestamp, cancel, orderID)
}

// MakerOrCancel submits a post-only limit order: it is dropped with no
// effect whenever it would immediately trade against the opposite side,
// and rests otherwise. Returns an empty fill list in both cases.
func (b *Book) MakerOrCancel(side bookv1.Side, price, volume float64, timestamp int64, orderID string) ([]bookv1.Fill, error) {
	if err := validateLimitArgs(side, price, volume); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.marketable(side, price) {
		return nil, nil
	}
	return b.limitLocked(side, price, volume, timestamp, false, orderID)
}

// ImmediateOrCancel submits a limit order that only executes when it is
// immediately marketable against the opposite best; otherwise it is
// dropped with no effect. Any unfilled remainder is discarded.
func (b *Book) ImmediateOrCancel(side bookv1.Side, price, volume float64, timestamp int64, orderID string) ([]bookv1.Fill, error) {
	if err := validateLimitArgs(side, price, volume); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.marketable(side, price) {
		return nil, nil
	}
	return b.limitLocked(side, price, volume, timestamp, true, orderID)
}

// Cancel removes a resting order from the given side.
func (b *Book) Cancel(side bookv1.Side, orderID string) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %q", bookv1.ErrInvalidSide, side)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.sideBook(side).RemoveOrderByID(orderID); err != nil {
		return err
	}

	b.orderSeq++
	b.refresh()
	return nil
}

func (b *Book) limitLocked(side bookv1.Side, price, volume float64, timestamp int64, cancel bool, orderID string) ([]bookv1.Fill, error) {
	// The effective id must be settled before the matching walk runs:
	// a rejection after FillLimit would strand consumed liquidity.
	own := b.sideBook(side)
	if orderID == "" {
		orderID = b.nextAutoID(own)
	} else if own.Has(orderID) {
		return nil, fmt.Errorf("%w: %s", bookv1.ErrDuplicateOrder, orderID)
	}

	remaining, fills := b.opposite(side).FillLimit(price, volume)

	if remaining > 0 && !cancel {
		if _, err := own.InsertOrder(orderID, price, remaining, timestamp, b.orderSeq); err != nil {
			return nil, err
		}
	}

	b.finishMutation(timestamp)
	return fills, nil
}

// nextAutoID derives an order id from the counter, skipping any value a
// client-supplied id already occupies on this side.
func (b *Book) nextAutoID(own *bookv1.SideBook) string {
	for seq := b.orderSeq; ; seq++ {
		id := strconv.FormatInt(seq, 10)
		if !own.Has(id) {
			return id
		}
	}
}

// marketable reports whether a limit order at price would trade
// immediately against the opposite best quote.
func (b *Book) marketable(side bookv1.Side, price float64) bool {
	opp := b.opposite(side)
	best, ok := opp.BestPrice()
	if !ok {
		return false
	}
	return opp.Crosses(best, price)
}

func (b *Book) sideBook(side bookv1.Side) *bookv1.SideBook {
	if side == bookv1.SideBid {
		return b.bids
	}
	return b.asks
}

func (b *Book) opposite(side bookv1.Side) *bookv1.SideBook {
	return b.sideBook(side.Opposite())
}

func (b *Book) finishMutation(timestamp int64) {
	b.orderSeq++
	b.lastEventTime = timestamp
	b.refresh()
}

func (b *Book) refresh() {
	b.stats = bookv1.ComputeStats(b.bids, b.asks)
}

func validateLimitArgs(side bookv1.Side, price, volume float64) error {
	if volume <= 0 {
		return fmt.Errorf("%w: got %f", bookv1.ErrInvalidVolume, volume)
	}
	if price <= 0 {
		return fmt.Errorf("%w: got %f", bookv1.ErrInvalidPrice, price)
	}
	if !side.Valid() {
		return fmt.Errorf("%w: %q", bookv1.ErrInvalidSide, side)
	}
	return nil
}

// Validate checks both sides' internal bookkeeping and the derived
// quote. Intended for tests and post-restore sanity checks.
func (b *Book) Validate() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.bids.Validate(); err != nil {
		return err
	}
	if err := b.asks.Validate(); err != nil {
		return err
	}
	return b.stats.Validate()
}

// Snapshot captures every resting order plus the counters needed to
// resume this book elsewhere. The stream offset is filled in by the
// engine.
func (b *Book) Snapshot() *snapshotv1.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var orders []snapshotv1.BookOrder
	collect := func(level *bookv1.Level) bool {
		for _, order := range level.Orders {
			orders = append(orders, snapshotv1.BookOrder{
				OrderID:   order.ID,
				Side:      order.Side,
				Price:     order.Price,
				Volume:    order.Volume,
				Timestamp: order.Timestamp,
				Sequence:  order.Sequence,
			})
		}
		return true
	}
	b.bids.Walk(collect)
	b.asks.Walk(collect)

	return &snapshotv1.Snapshot{
		Symbol: b.symbol,
		BookState: snapshotv1.BookState{
			Orders:        orders,
			OrderSeq:      b.orderSeq,
			LastEventTime: b.lastEventTime,
		},
	}
}

// Restore replaces the book's state with a snapshot's. The restored
// book must produce an uncrossed quote or the restore is rejected.
func (b *Book) Restore(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bids := bookv1.NewSideBook(bookv1.SideBid)
	asks := bookv1.NewSideBook(bookv1.SideAsk)

	for _, bo := range snapshot.BookState.Orders {
		var sb *bookv1.SideBook
		switch bo.Side {
		case bookv1.SideBid:
			sb = bids
		case bookv1.SideAsk:
			sb = asks
		default:
			return fmt.Errorf("%w: %q in snapshot order %s", bookv1.ErrInvalidSide, bo.Side, bo.OrderID)
		}
		if _, err := sb.InsertOrder(bo.OrderID, bo.Price, bo.Volume, bo.Timestamp, bo.Sequence); err != nil {
			return fmt.Errorf("failed to restore order %s: %w", bo.OrderID, err)
		}
	}

	stats := bookv1.ComputeStats(bids, asks)
	if err := stats.Validate(); err != nil {
		return err
	}

	b.bids = bids
	b.asks = asks
	b.orderSeq = snapshot.BookState.OrderSeq
	b.lastEventTime = snapshot.BookState.LastEventTime
	b.stats = stats

	return nil
}
