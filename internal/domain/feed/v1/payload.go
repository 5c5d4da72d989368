package feedv1

import (
	"encoding/json"

	bookv1 "github.com/tickerforge/book-engine/internal/domain/book/v1"
)

// OrderPayload is the wire form of one inbound order-flow event. The
// feed handler owns validation of symbols and routing; the engine only
// interprets the order fields.
type OrderPayload struct {
	OrderID   string  `json:"orderID"`
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`

	// Offset is the position of the event in the order stream,
	// populated by the reader rather than the producer.
	Offset int64 `json:"-"`
}

// OrderType converts the wire type field to the book's order type.
func (p *OrderPayload) OrderType() bookv1.OrderType {
	return bookv1.OrderType(p.Type)
}

// BookSide converts the wire side field to the book's side.
func (p *OrderPayload) BookSide() bookv1.Side {
	return bookv1.Side(p.Side)
}

// FillEventPayload is the wire form of the fills produced by one
// aggressing order.
type FillEventPayload struct {
	Symbol       string        `json:"symbol"`
	TakerOrderID string        `json:"takerOrderID"`
	TakerSide    bookv1.Side   `json:"takerSide"`
	Fills        []bookv1.Fill `json:"fills"`
	Timestamp    int64         `json:"timestamp"`
	Offset       int64         `json:"offset"`
}

// ToBytes serializes a payload for the wire.
func ToBytes(v any) []byte {
	buf, _ := json.Marshal(v)
	return buf
}
