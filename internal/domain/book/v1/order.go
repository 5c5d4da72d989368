package bookv1

// Side identifies one half of the book.
type Side string

const (
	// SideBid is the buy side of the book.
	SideBid Side = "BID"
	// SideAsk is the sell side of the book.
	SideAsk Side = "ASK"
)

// Valid reports whether the side is BID or ASK.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// OrderType represents the type of an inbound order request.
type OrderType string

const (
	// OrderTypeMarket represents a market order.
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit represents a plain limit order.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeLimitIOC represents an immediate-or-cancel limit order.
	OrderTypeLimitIOC OrderType = "limit_ioc"
	// OrderTypePostOnly represents a maker-or-cancel limit order.
	OrderTypePostOnly OrderType = "post_only"
	// OrderTypeCancel represents a cancel request.
	OrderTypeCancel OrderType = "cancel"
)

// Order is a resting unit of liquidity. Volume is the remaining
// (unfilled) quantity; OrigVolume is the quantity at arrival.
type Order struct {
	ID         string  `json:"id"`
	Side       Side    `json:"side"`
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	OrigVolume float64 `json:"origVolume"`
	Timestamp  int64   `json:"timestamp"`
	Sequence   int64   `json:"sequence"`
}

// NewOrder creates a resting order. Timestamps are supplied by the
// caller, never read from the wall clock, so replays stay deterministic.
func NewOrder(id string, side Side, price, volume float64, timestamp, sequence int64) *Order {
	return &Order{
		ID:         id,
		Side:       side,
		Price:      price,
		Volume:     volume,
		OrigVolume: volume,
		Timestamp:  timestamp,
		Sequence:   sequence,
	}
}

// IsBid checks if the order rests on the buy side.
func (o *Order) IsBid() bool {
	return o.Side == SideBid
}

// IsFilled checks if the order has no remaining volume.
func (o *Order) IsFilled() bool {
	return o.Volume <= 0
}
