package bookv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideBook_BestPrice(t *testing.T) {
	t.Run("empty side has no best price", func(t *testing.T) {
		sb := NewSideBook(SideBid)

		_, ok := sb.BestPrice()
		assert.False(t, ok)
		assert.Nil(t, sb.BestLevel())
	})

	t.Run("bid side reports the maximum price", func(t *testing.T) {
		sb := NewSideBook(SideBid)
		_, err := sb.InsertOrder("b1", 99.0, 10.0, 1000, 1)
		require.NoError(t, err)
		_, err = sb.InsertOrder("b2", 101.0, 5.0, 1001, 2)
		require.NoError(t, err)

		price, ok := sb.BestPrice()
		require.True(t, ok)
		assert.Equal(t, 101.0, price)
	})

	t.Run("ask side reports the minimum price", func(t *testing.T) {
		sb := NewSideBook(SideAsk)
		_, err := sb.InsertOrder("a1", 105.0, 10.0, 1000, 1)
		require.NoError(t, err)
		_, err = sb.InsertOrder("a2", 102.0, 5.0, 1001, 2)
		require.NoError(t, err)

		price, ok := sb.BestPrice()
		require.True(t, ok)
		assert.Equal(t, 102.0, price)
	})
}

func TestSideBook_InsertOrder(t *testing.T) {
	sb := NewSideBook(SideAsk)

	t.Run("creates the level on first insert", func(t *testing.T) {
		order, err := sb.InsertOrder("a1", 100.0, 10.0, 1000, 1)

		require.NoError(t, err)
		assert.Equal(t, SideAsk, order.Side)
		assert.Equal(t, 10.0, order.OrigVolume)
		assert.Equal(t, 1, sb.LevelCount())
		assert.Equal(t, 10.0, sb.Depth())
		assert.True(t, sb.Has("a1"))
	})

	t.Run("reuses an existing level", func(t *testing.T) {
		_, err := sb.InsertOrder("a2", 100.0, 5.0, 1001, 2)

		require.NoError(t, err)
		assert.Equal(t, 1, sb.LevelCount())
		assert.Equal(t, 15.0, sb.Level(100.0).TotalVolume)
		assert.Equal(t, 15.0, sb.Depth())
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := sb.InsertOrder("a1", 101.0, 5.0, 1002, 3)
		assert.ErrorIs(t, err, ErrDuplicateOrder)
	})

	t.Run("rejects bad volume and price", func(t *testing.T) {
		_, err := sb.InsertOrder("a3", 100.0, 0.0, 1003, 4)
		assert.ErrorIs(t, err, ErrInvalidVolume)

		_, err = sb.InsertOrder("a3", -1.0, 5.0, 1003, 4)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}

func TestSideBook_RemoveOrderByID(t *testing.T) {
	sb := NewSideBook(SideBid)
	_, err := sb.InsertOrder("b1", 100.0, 10.0, 1000, 1)
	require.NoError(t, err)

	t.Run("missing order", func(t *testing.T) {
		_, err := sb.RemoveOrderByID("nope")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("removes the order and excises the empty level", func(t *testing.T) {
		order, err := sb.RemoveOrderByID("b1")

		require.NoError(t, err)
		assert.Equal(t, "b1", order.ID)
		assert.Equal(t, 0, sb.LevelCount())
		assert.Equal(t, 0.0, sb.Depth())
		assert.False(t, sb.Has("b1"))
	})
}

func TestSideBook_FillMarket(t *testing.T) {
	sb := NewSideBook(SideAsk)
	_, err := sb.InsertOrder("a1", 101.0, 5.0, 1000, 1)
	require.NoError(t, err)
	_, err = sb.InsertOrder("a2", 102.0, 3.0, 1001, 2)
	require.NoError(t, err)
	_, err = sb.InsertOrder("a3", 103.0, 7.0, 1002, 3)
	require.NoError(t, err)

	remaining, fills := sb.FillMarket(12.0)

	assert.Equal(t, 0.0, remaining)
	require.Len(t, fills, 3)

	// Price priority: cheapest ask levels consumed first.
	assert.Equal(t, 101.0, fills[0].Price)
	assert.Equal(t, 5.0, fills[0].Volume)
	assert.Equal(t, 102.0, fills[1].Price)
	assert.Equal(t, 3.0, fills[1].Volume)
	assert.Equal(t, 103.0, fills[2].Price)
	assert.Equal(t, 4.0, fills[2].Volume)

	// Emptied levels are gone, the partial one remains.
	assert.Equal(t, 1, sb.LevelCount())
	assert.Equal(t, 3.0, sb.Level(103.0).TotalVolume)
	assert.Equal(t, 3.0, sb.Depth())
	require.NoError(t, sb.Validate())
}

func TestSideBook_FillMarket_ExhaustsLiquidity(t *testing.T) {
	sb := NewSideBook(SideBid)
	_, err := sb.InsertOrder("b1", 100.0, 4.0, 1000, 1)
	require.NoError(t, err)

	remaining, fills := sb.FillMarket(10.0)

	assert.Equal(t, 6.0, remaining)
	require.Len(t, fills, 1)
	assert.Equal(t, 0, sb.LevelCount())
	assert.Equal(t, 0, sb.OrderCount())
}

func TestSideBook_FillLimit(t *testing.T) {
	t.Run("buy stops at the threshold", func(t *testing.T) {
		asks := NewSideBook(SideAsk)
		_, err := asks.InsertOrder("a1", 101.0, 5.0, 1000, 1)
		require.NoError(t, err)
		_, err = asks.InsertOrder("a2", 105.0, 5.0, 1001, 2)
		require.NoError(t, err)

		remaining, fills := asks.FillLimit(101.0, 8.0)

		assert.Equal(t, 3.0, remaining)
		require.Len(t, fills, 1)
		assert.Equal(t, 101.0, fills[0].Price)
		assert.Equal(t, 5.0, fills[0].Volume)
		assert.Equal(t, 5.0, asks.Depth())
	})

	t.Run("sell stops at the threshold", func(t *testing.T) {
		bids := NewSideBook(SideBid)
		_, err := bids.InsertOrder("b1", 100.0, 5.0, 1000, 1)
		require.NoError(t, err)
		_, err = bids.InsertOrder("b2", 98.0, 5.0, 1001, 2)
		require.NoError(t, err)

		remaining, fills := bids.FillLimit(99.0, 8.0)

		assert.Equal(t, 3.0, remaining)
		require.Len(t, fills, 1)
		assert.Equal(t, 100.0, fills[0].Price)
	})

	t.Run("non-crossing limit fills nothing", func(t *testing.T) {
		asks := NewSideBook(SideAsk)
		_, err := asks.InsertOrder("a1", 105.0, 5.0, 1000, 1)
		require.NoError(t, err)

		remaining, fills := asks.FillLimit(100.0, 8.0)

		assert.Equal(t, 8.0, remaining)
		assert.Empty(t, fills)
		assert.Equal(t, 5.0, asks.Depth())
	})
}

func TestSideBook_FIFOWithinLevel(t *testing.T) {
	sb := NewSideBook(SideAsk)
	_, err := sb.InsertOrder("early", 100.0, 5.0, 1000, 1)
	require.NoError(t, err)
	_, err = sb.InsertOrder("late", 100.0, 5.0, 2000, 2)
	require.NoError(t, err)

	// The earlier arrival is fully consumed before the later one is touched.
	remaining, fills := sb.FillLimit(100.0, 7.0)

	assert.Equal(t, 0.0, remaining)
	require.Len(t, fills, 2)
	assert.Equal(t, "early", fills[0].OrderID)
	assert.Equal(t, 5.0, fills[0].Volume)
	assert.Equal(t, "late", fills[1].OrderID)
	assert.Equal(t, 2.0, fills[1].Volume)
	assert.False(t, sb.Has("early"))
	assert.True(t, sb.Has("late"))
}

func TestSideBook_Levels(t *testing.T) {
	bids := NewSideBook(SideBid)
	for i, price := range []float64{99.0, 101.0, 100.0} {
		_, err := bids.InsertOrder(string(rune('a'+i)), price, 1.0, int64(i), int64(i))
		require.NoError(t, err)
	}

	levels := bids.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, 101.0, levels[0].Price)
	assert.Equal(t, 100.0, levels[1].Price)
	assert.Equal(t, 99.0, levels[2].Price)
}
