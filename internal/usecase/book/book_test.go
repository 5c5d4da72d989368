package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookv1 "github.com/tickerforge/book-engine/internal/domain/book/v1"
	snapshotv1 "github.com/tickerforge/book-engine/internal/domain/snapshot/v1"
)

func snapshotOrder(id string, side bookv1.Side, price, volume float64) snapshotv1.BookOrder {
	return snapshotv1.BookOrder{
		OrderID: id,
		Side:    side,
		Price:   price,
		Volume:  volume,
	}
}

func TestNew(t *testing.T) {
	b := New("BTC-USD")

	assert.Equal(t, "BTC-USD", b.Symbol())
	assert.Equal(t, int64(0), b.OrderSeq())

	stats := b.Stats()
	assert.False(t, stats.HasBid)
	assert.False(t, stats.HasAsk)
	assert.Equal(t, 0.0, stats.Imbalance)
	require.NoError(t, b.Validate())
}

// Resting a bid on an empty book produces no fills and a one-sided quote.
func TestBook_LimitRestsOnEmptyBook(t *testing.T) {
	b := New("BTC-USD")

	fills, err := b.Limit(bookv1.SideBid, 100.0, 10.0, 1000, false, "")

	require.NoError(t, err)
	assert.Empty(t, fills)

	stats := b.Stats()
	assert.True(t, stats.HasBid)
	assert.False(t, stats.HasAsk)
	assert.Equal(t, 100.0, stats.Bid)
	assert.Equal(t, 10.0, stats.BidVol)
	assert.Equal(t, int64(1), b.OrderSeq())
	assert.Equal(t, int64(1000), b.LastEventTime())
}

// A market buy takes from the best ask and never rests.
func TestBook_MarketOrder(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideAsk, 101.0, 10.0, 1000, false, "a1")
	require.NoError(t, err)

	fills, err := b.Market(bookv1.SideBid, 5.0, 1001)

	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, 101.0, fills[0].Price)
	assert.Equal(t, 5.0, fills[0].Volume)

	stats := b.Stats()
	assert.Equal(t, 101.0, stats.Ask)
	assert.Equal(t, 5.0, stats.AskVol)
	assert.False(t, stats.HasBid)
	require.NoError(t, b.Validate())
}

func TestBook_MarketOrder_RemainderDiscarded(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideAsk, 101.0, 4.0, 1000, false, "a1")
	require.NoError(t, err)

	fills, err := b.Market(bookv1.SideBid, 10.0, 1001)

	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, 4.0, bookv1.FilledVolume(fills))

	stats := b.Stats()
	assert.False(t, stats.HasBid)
	assert.False(t, stats.HasAsk)
}

// A marketable limit sweeps the opposite side and rests its remainder.
func TestBook_MarketableLimit(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 10.0, 1000, false, "b1")
	require.NoError(t, err)

	fills, err := b.Limit(bookv1.SideAsk, 99.0, 20.0, 1001, false, "a1")

	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, 100.0, fills[0].Price)
	assert.Equal(t, 10.0, fills[0].Volume)

	stats := b.Stats()
	assert.False(t, stats.HasBid)
	assert.True(t, stats.HasAsk)
	assert.Equal(t, 99.0, stats.Ask)
	assert.Equal(t, 10.0, stats.AskVol)
	require.NoError(t, b.Validate())
}

func TestBook_LimitWithCancelDiscardsRemainder(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 10.0, 1000, false, "b1")
	require.NoError(t, err)

	fills, err := b.Limit(bookv1.SideAsk, 99.0, 20.0, 1001, true, "a1")

	require.NoError(t, err)
	assert.Equal(t, 10.0, bookv1.FilledVolume(fills))
	assert.False(t, b.Stats().HasAsk)
}

func TestBook_ValidationErrors(t *testing.T) {
	b := New("BTC-USD")

	_, err := b.Market(bookv1.SideBid, 0.0, 1000)
	assert.ErrorIs(t, err, bookv1.ErrInvalidVolume)

	_, err = b.Market("SHORT", 1.0, 1000)
	assert.ErrorIs(t, err, bookv1.ErrInvalidSide)

	_, err = b.Limit(bookv1.SideBid, 0.0, 1.0, 1000, false, "")
	assert.ErrorIs(t, err, bookv1.ErrInvalidPrice)

	_, err = b.Limit(bookv1.SideBid, 100.0, -1.0, 1000, false, "")
	assert.ErrorIs(t, err, bookv1.ErrInvalidVolume)

	err = b.Cancel("SHORT", "o1")
	assert.ErrorIs(t, err, bookv1.ErrInvalidSide)

	// Failed validation leaves the book untouched.
	assert.Equal(t, int64(0), b.OrderSeq())
	assert.False(t, b.Stats().HasBid)
}

func TestBook_Cancel(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 10.0, 1000, false, "b1")
	require.NoError(t, err)

	t.Run("cancel missing order leaves state unchanged", func(t *testing.T) {
		err := b.Cancel(bookv1.SideBid, "nope")
		assert.ErrorIs(t, err, bookv1.ErrOrderNotFound)
		assert.Equal(t, 100.0, b.Stats().Bid)
	})

	t.Run("cancel on the wrong side does not find the order", func(t *testing.T) {
		err := b.Cancel(bookv1.SideAsk, "b1")
		assert.ErrorIs(t, err, bookv1.ErrOrderNotFound)
	})

	t.Run("cancel removes the order and refreshes", func(t *testing.T) {
		err := b.Cancel(bookv1.SideBid, "b1")
		require.NoError(t, err)
		assert.False(t, b.Stats().HasBid)
		assert.Equal(t, 0.0, b.BidDepth())
	})
}

func TestBook_ImmediateOrCancel(t *testing.T) {
	t.Run("dropped when not marketable", func(t *testing.T) {
		b := New("BTC-USD")
		_, err := b.Limit(bookv1.SideAsk, 105.0, 10.0, 1000, false, "a1")
		require.NoError(t, err)

		fills, err := b.ImmediateOrCancel(bookv1.SideBid, 100.0, 10.0, 1001, "")

		require.NoError(t, err)
		assert.Empty(t, fills)
		assert.False(t, b.Stats().HasBid)
		assert.Equal(t, 10.0, b.Stats().AskVol)
	})

	t.Run("fills when marketable, remainder discarded", func(t *testing.T) {
		b := New("BTC-USD")
		_, err := b.Limit(bookv1.SideAsk, 100.0, 5.0, 1000, false, "a1")
		require.NoError(t, err)

		fills, err := b.ImmediateOrCancel(bookv1.SideBid, 100.0, 10.0, 1001, "")

		require.NoError(t, err)
		assert.Equal(t, 5.0, bookv1.FilledVolume(fills))
		assert.False(t, b.Stats().HasBid)
		assert.False(t, b.Stats().HasAsk)
	})
}

func TestBook_MakerOrCancel(t *testing.T) {
	t.Run("rests when it would not cross", func(t *testing.T) {
		b := New("BTC-USD")
		_, err := b.Limit(bookv1.SideAsk, 105.0, 10.0, 1000, false, "a1")
		require.NoError(t, err)

		fills, err := b.MakerOrCancel(bookv1.SideBid, 100.0, 10.0, 1001, "b1")

		require.NoError(t, err)
		assert.Empty(t, fills)
		assert.Equal(t, 100.0, b.Stats().Bid)
	})

	t.Run("dropped when it would cross", func(t *testing.T) {
		b := New("BTC-USD")
		_, err := b.Limit(bookv1.SideAsk, 100.0, 10.0, 1000, false, "a1")
		require.NoError(t, err)

		fills, err := b.MakerOrCancel(bookv1.SideBid, 100.0, 10.0, 1001, "b1")

		require.NoError(t, err)
		assert.Empty(t, fills)
		assert.False(t, b.Stats().HasBid)
		assert.Equal(t, 10.0, b.Stats().AskVol)
	})
}

// Input volume always equals filled volume plus whatever rested.
func TestBook_VolumeConservation(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 7.0, 1000, false, "b1")
	require.NoError(t, err)
	_, err = b.Limit(bookv1.SideBid, 99.0, 4.0, 1001, false, "b2")
	require.NoError(t, err)

	input := 20.0
	fills, err := b.Limit(bookv1.SideAsk, 99.0, input, 1002, false, "a1")
	require.NoError(t, err)

	rested := b.AskDepth()
	assert.Equal(t, input, bookv1.FilledVolume(fills)+rested)
	require.NoError(t, b.Validate())
}

// After every call, a two-sided book must satisfy bid < ask.
func TestBook_NeverCrossed(t *testing.T) {
	b := New("BTC-USD")

	calls := []func() error{
		func() error { _, err := b.Limit(bookv1.SideBid, 100.0, 10.0, 1, false, ""); return err },
		func() error { _, err := b.Limit(bookv1.SideAsk, 101.0, 8.0, 2, false, ""); return err },
		func() error { _, err := b.Limit(bookv1.SideBid, 101.5, 3.0, 3, false, ""); return err },
		func() error { _, err := b.Limit(bookv1.SideAsk, 99.0, 25.0, 4, false, ""); return err },
		func() error { _, err := b.Market(bookv1.SideBid, 2.0, 5); return err },
		func() error { _, err := b.Limit(bookv1.SideBid, 98.0, 5.0, 6, false, ""); return err },
	}

	for i, call := range calls {
		require.NoError(t, call(), "call %d", i)
		stats := b.Stats()
		if stats.TwoSided() {
			assert.Less(t, stats.Bid, stats.Ask, "after call %d", i)
		}
		require.NoError(t, b.Validate(), "after call %d", i)
	}
}

// Orders resting at the same price fill strictly in arrival order.
func TestBook_FIFOFairness(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideAsk, 100.0, 5.0, 1000, false, "first")
	require.NoError(t, err)
	_, err = b.Limit(bookv1.SideAsk, 100.0, 5.0, 2000, false, "second")
	require.NoError(t, err)

	fills, err := b.Market(bookv1.SideBid, 7.0, 3000)

	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "first", fills[0].OrderID)
	assert.Equal(t, 5.0, fills[0].Volume)
	assert.Equal(t, "second", fills[1].OrderID)
	assert.Equal(t, 2.0, fills[1].Volume)
}

// A crossing aggressor exhausts the best level before the next-best.
func TestBook_PricePriority(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 5.0, 1000, false, "best")
	require.NoError(t, err)
	_, err = b.Limit(bookv1.SideBid, 99.0, 5.0, 1001, false, "worse")
	require.NoError(t, err)

	fills, err := b.Limit(bookv1.SideAsk, 98.0, 8.0, 1002, true, "")

	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, 100.0, fills[0].Price)
	assert.Equal(t, 5.0, fills[0].Volume)
	assert.Equal(t, 99.0, fills[1].Price)
	assert.Equal(t, 3.0, fills[1].Volume)
}

func TestBook_StatsIdempotent(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 10.0, 1000, false, "")
	require.NoError(t, err)
	_, err = b.Limit(bookv1.SideAsk, 102.0, 4.0, 1001, false, "")
	require.NoError(t, err)

	first := b.Stats()
	second := b.Stats()
	assert.Equal(t, first, second)
}

func TestBook_DefaultOrderIDsFollowCounter(t *testing.T) {
	b := New("BTC-USD")

	_, err := b.Limit(bookv1.SideBid, 100.0, 1.0, 1000, false, "")
	require.NoError(t, err)
	_, err = b.Limit(bookv1.SideBid, 100.0, 1.0, 1001, false, "")
	require.NoError(t, err)

	// Counter-derived ids are cancellable like any other.
	require.NoError(t, b.Cancel(bookv1.SideBid, "0"))
	require.NoError(t, b.Cancel(bookv1.SideBid, "1"))
	assert.False(t, b.Stats().HasBid)
}

// A counter-derived id must not collide with a resting client id; the
// collision is resolved before matching so fills are never dropped.
func TestBook_DefaultOrderIDSkipsRestingClientID(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideAsk, 98.0, 1.0, 1000, false, "a1")
	require.NoError(t, err)
	// Client takes the id the counter would produce next ("2").
	_, err = b.Limit(bookv1.SideBid, 90.0, 1.0, 1001, false, "2")
	require.NoError(t, err)

	fills, err := b.Limit(bookv1.SideBid, 99.0, 2.0, 1002, false, "")

	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "a1", fills[0].OrderID)
	assert.Equal(t, 1.0, fills[0].Volume)

	stats := b.Stats()
	assert.False(t, stats.HasAsk)
	assert.Equal(t, 0.0, b.AskDepth())
	assert.Equal(t, 99.0, stats.Bid)
	assert.Equal(t, 1.0, stats.BidVol)
	require.NoError(t, b.Validate())

	// The remainder rested under the next free counter id.
	require.NoError(t, b.Cancel(bookv1.SideBid, "3"))
}

func TestBook_DuplicateOrderID(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 1.0, 1000, false, "b1")
	require.NoError(t, err)

	_, err = b.Limit(bookv1.SideBid, 99.0, 1.0, 1001, false, "b1")
	assert.ErrorIs(t, err, bookv1.ErrDuplicateOrder)
}

func TestBook_SnapshotRestore(t *testing.T) {
	b := New("BTC-USD")
	_, err := b.Limit(bookv1.SideBid, 100.0, 10.0, 1000, false, "b1")
	require.NoError(t, err)
	_, err = b.Limit(bookv1.SideBid, 99.0, 5.0, 1001, false, "b2")
	require.NoError(t, err)
	_, err = b.Limit(bookv1.SideAsk, 102.0, 7.0, 1002, false, "a1")
	require.NoError(t, err)

	snap := b.Snapshot()
	require.Len(t, snap.BookState.Orders, 3)
	assert.Equal(t, "BTC-USD", snap.Symbol)
	assert.Equal(t, int64(3), snap.BookState.OrderSeq)

	restored := New("BTC-USD")
	require.NoError(t, restored.Restore(snap))

	assert.Equal(t, b.Stats(), restored.Stats())
	assert.Equal(t, int64(3), restored.OrderSeq())
	assert.Equal(t, int64(1002), restored.LastEventTime())
	require.NoError(t, restored.Validate())

	// The restored book keeps matching from where the original left off.
	fills, err := restored.Market(bookv1.SideAsk, 12.0, 1003)
	require.NoError(t, err)
	assert.Equal(t, 12.0, bookv1.FilledVolume(fills))
	assert.Equal(t, "b1", fills[0].OrderID)
}

func TestBook_RestoreRejectsBadSnapshots(t *testing.T) {
	b := New("BTC-USD")

	t.Run("nil snapshot", func(t *testing.T) {
		assert.Error(t, b.Restore(nil))
	})

	t.Run("crossed snapshot", func(t *testing.T) {
		crossed := New("BTC-USD")
		_, err := crossed.Limit(bookv1.SideBid, 100.0, 1.0, 1000, false, "b1")
		require.NoError(t, err)
		snap := crossed.Snapshot()
		snap.BookState.Orders = append(snap.BookState.Orders, snapshotOrder("a1", bookv1.SideAsk, 99.0, 1.0))

		assert.ErrorIs(t, b.Restore(snap), bookv1.ErrInvalidQuote)
	})
}
