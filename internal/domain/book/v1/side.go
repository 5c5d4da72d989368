package bookv1

import (
	"fmt"

	"github.com/google/btree"
)

// priceIndexDegree is the btree degree for the per-side price index.
const priceIndexDegree = 16

// SideBook is the ordered collection of price levels for one side of
// the book. Levels are indexed by a btree for O(log n) best-price
// retrieval, with auxiliary maps for O(1) level and order lookup.
// SideBook is not safe for concurrent use; the owning book serializes
// access.
type SideBook struct {
	side   Side
	tree   *btree.BTree
	levels map[float64]*Level
	orders map[string]*Level
	depth  float64
}

// NewSideBook creates an empty SideBook for the given side.
func NewSideBook(side Side) *SideBook {
	return &SideBook{
		side:   side,
		tree:   btree.New(priceIndexDegree),
		levels: make(map[float64]*Level),
		orders: make(map[string]*Level),
	}
}

// Side returns which half of the book this collection holds.
func (sb *SideBook) Side() Side {
	return sb.side
}

// LevelCount returns the number of non-empty price levels.
func (sb *SideBook) LevelCount() int {
	return sb.tree.Len()
}

// OrderCount returns the number of resting orders across all levels.
func (sb *SideBook) OrderCount() int {
	return len(sb.orders)
}

// Depth returns the total resting volume across all levels. It is
// maintained incrementally so aggregate analytics never rescan the tree.
func (sb *SideBook) Depth() float64 {
	return sb.depth
}

// BestLevel returns the highest-priority level: the maximum price for
// bids, the minimum for asks. Nil when the side is empty.
func (sb *SideBook) BestLevel() *Level {
	var item btree.Item
	if sb.side == SideBid {
		item = sb.tree.Max()
	} else {
		item = sb.tree.Min()
	}
	if item == nil {
		return nil
	}
	return item.(*Level)
}

// BestPrice returns the side's best price. The boolean is false when no
// liquidity rests on this side; there is no sentinel price value.
func (sb *SideBook) BestPrice() (float64, bool) {
	level := sb.BestLevel()
	if level == nil {
		return 0, false
	}
	return level.Price, true
}

// Level returns the level at an exact price, or nil.
func (sb *SideBook) Level(price float64) *Level {
	return sb.levels[price]
}

// Has reports whether an order with the given id rests on this side.
func (sb *SideBook) Has(id string) bool {
	_, ok := sb.orders[id]
	return ok
}

// InsertOrder creates a resting order at the given price, creating the
// level when absent.
func (sb *SideBook) InsertOrder(id string, price, volume float64, timestamp, sequence int64) (*Order, error) {
	if volume <= 0 {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidVolume, volume)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidPrice, price)
	}
	if _, exists := sb.orders[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, id)
	}

	level, exists := sb.levels[price]
	if !exists {
		level = NewLevel(price)
		sb.levels[price] = level
		sb.tree.ReplaceOrInsert(level)
	}

	order := NewOrder(id, sb.side, price, volume, timestamp, sequence)
	if err := level.Add(order); err != nil {
		return nil, err
	}

	sb.orders[id] = level
	sb.depth += volume

	return order, nil
}

// RemoveOrderByID removes a resting order from whichever level holds
// it, excising the level when it empties.
func (sb *SideBook) RemoveOrderByID(id string) (*Order, error) {
	level, ok := sb.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s side", ErrOrderNotFound, id, sb.side)
	}

	order, err := level.RemoveByID(id)
	if err != nil {
		return nil, err
	}

	delete(sb.orders, id)
	sb.depth -= order.Volume
	if level.IsEmpty() {
		sb.deleteLevel(level)
	}

	return order, nil
}

// FillMarket runs the matching walk with no price restriction: every
// resting level crosses. Returns unconsumed aggressor volume and the
// fills in price-then-time order.
func (sb *SideBook) FillMarket(volume float64) (float64, []Fill) {
	return sb.fill(0, true, volume)
}

// FillLimit runs the matching walk bounded by a limit price. A resting
// ask crosses a buy at price <= threshold; a resting bid crosses a sell
// at price >= threshold.
func (sb *SideBook) FillLimit(threshold, volume float64) (float64, []Fill) {
	return sb.fill(threshold, false, volume)
}

// Crosses reports whether a resting level at price would trade against
// an aggressor bounded by threshold.
func (sb *SideBook) Crosses(price, threshold float64) bool {
	if sb.side == SideAsk {
		return price <= threshold
	}
	return price >= threshold
}

func (sb *SideBook) fill(threshold float64, unrestricted bool, volume float64) (float64, []Fill) {
	var fills []Fill

	for volume > 0 {
		level := sb.BestLevel()
		if level == nil {
			break
		}
		if !unrestricted && !sb.Crosses(level.Price, threshold) {
			break
		}

		levelFills, removed, leftover := level.Consume(volume)
		sb.depth -= volume - leftover
		volume = leftover
		fills = append(fills, levelFills...)

		for _, id := range removed {
			delete(sb.orders, id)
		}
		if level.IsEmpty() {
			sb.deleteLevel(level)
		}
	}

	return volume, fills
}

func (sb *SideBook) deleteLevel(level *Level) {
	sb.tree.Delete(level)
	delete(sb.levels, level.Price)
}

// Levels returns the side's levels in priority order: descending price
// for bids, ascending for asks.
func (sb *SideBook) Levels() []*Level {
	levels := make([]*Level, 0, sb.tree.Len())
	collect := func(item btree.Item) bool {
		levels = append(levels, item.(*Level))
		return true
	}
	if sb.side == SideBid {
		sb.tree.Descend(collect)
	} else {
		sb.tree.Ascend(collect)
	}
	return levels
}

// Walk visits levels in ascending price order until fn returns false.
func (sb *SideBook) Walk(fn func(*Level) bool) {
	sb.tree.Ascend(func(item btree.Item) bool {
		return fn(item.(*Level))
	})
}

// Validate checks every level plus the side's aggregate bookkeeping.
func (sb *SideBook) Validate() error {
	calculated := 0.0
	var err error
	sb.Walk(func(level *Level) bool {
		if verr := level.Validate(); verr != nil {
			err = verr
			return false
		}
		if level.IsEmpty() {
			err = fmt.Errorf("empty level retained at %f on %s side", level.Price, sb.side)
			return false
		}
		calculated += level.TotalVolume
		return true
	})
	if err != nil {
		return err
	}

	const epsilon = 1e-9
	if diff := calculated - sb.depth; diff > epsilon || diff < -epsilon {
		return fmt.Errorf("depth mismatch on %s side: calculated %f, stored %f", sb.side, calculated, sb.depth)
	}
	return nil
}
