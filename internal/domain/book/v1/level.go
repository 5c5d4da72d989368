package bookv1

import (
	"fmt"

	"github.com/google/btree"
)

// Level holds every resting order at one exact price on one side, in
// strict arrival order. The head of the queue is matched first.
type Level struct {
	Price       float64  `json:"price"`
	Orders      []*Order `json:"orders"`
	TotalVolume float64  `json:"totalVolume"`
}

// NewLevel creates an empty Level at the given price.
func NewLevel(price float64) *Level {
	return &Level{
		Price:       price,
		Orders:      make([]*Order, 0),
		TotalVolume: 0.0,
	}
}

// Less orders levels by ascending price inside the side's btree index.
func (l *Level) Less(than btree.Item) bool {
	return l.Price < than.(*Level).Price
}

// Add appends an order to the FIFO tail and updates the total volume.
func (l *Level) Add(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.Volume <= 0 {
		return fmt.Errorf("%w: got %f", ErrInvalidVolume, order.Volume)
	}

	l.Orders = append(l.Orders, order)
	l.TotalVolume += order.Volume

	return nil
}

// Consume removes up to volume from the head of the queue. The head
// order is partially filled in place when it holds more than the
// request; fully filled orders are removed. Returns the fills produced,
// the ids of fully consumed orders, and any unconsumed volume (nonzero
// only when the level held less than requested).
func (l *Level) Consume(volume float64) ([]Fill, []string, float64) {
	var (
		fills   []Fill
		removed []string
	)

	for volume > 0 && len(l.Orders) > 0 {
		head := l.Orders[0]
		if head.Volume <= volume {
			fills = append(fills, Fill{
				OrderID:   head.ID,
				Price:     l.Price,
				Volume:    head.Volume,
				Timestamp: head.Timestamp,
			})
			volume -= head.Volume
			l.TotalVolume -= head.Volume
			head.Volume = 0
			removed = append(removed, head.ID)
			l.Orders = l.Orders[1:]
		} else {
			fills = append(fills, Fill{
				OrderID:   head.ID,
				Price:     l.Price,
				Volume:    volume,
				Timestamp: head.Timestamp,
			})
			head.Volume -= volume
			l.TotalVolume -= volume
			volume = 0
		}
	}

	return fills, removed, volume
}

// RemoveByID removes the order with the given id from the queue and
// returns it, decrementing the total volume by its remaining size.
func (l *Level) RemoveByID(id string) (*Order, error) {
	for i, o := range l.Orders {
		if o.ID == id {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalVolume -= o.Volume
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// IsEmpty checks if the level has no resting volume. The owning side is
// responsible for excising empty levels.
func (l *Level) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of resting orders at this level.
func (l *Level) OrderCount() int {
	return len(l.Orders)
}

// Validate checks the level's volume bookkeeping against its orders.
func (l *Level) Validate() error {
	if l.Price <= 0 {
		return fmt.Errorf("%w: level price %f", ErrInvalidPrice, l.Price)
	}

	calculated := 0.0
	for _, order := range l.Orders {
		if order == nil {
			return fmt.Errorf("nil order found in level %f", l.Price)
		}
		if order.Volume <= 0 {
			return fmt.Errorf("%w: resting order %s has volume %f", ErrInvalidVolume, order.ID, order.Volume)
		}
		calculated += order.Volume
	}

	// Small tolerance for floating point accumulation.
	const epsilon = 1e-9
	if diff := calculated - l.TotalVolume; diff > epsilon || diff < -epsilon {
		return fmt.Errorf("volume mismatch at %f: calculated %f, stored %f", l.Price, calculated, l.TotalVolume)
	}

	return nil
}
