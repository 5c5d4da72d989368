package snapshotv1

import bookv1 "github.com/tickerforge/book-engine/internal/domain/book/v1"

// BookOrder is one resting order as persisted in a snapshot.
type BookOrder struct {
	OrderID   string      `json:"orderID"`
	Side      bookv1.Side `json:"side"`
	Price     float64     `json:"price"`
	Volume    float64     `json:"volume"`
	Timestamp int64       `json:"timestamp"`
	Sequence  int64       `json:"sequence"`
}

// BookState is the restorable state of one book: its resting orders
// plus the counters a restored book must continue from.
type BookState struct {
	Orders        []BookOrder `json:"orders"`
	OrderSeq      int64       `json:"orderSeq"`
	LastEventTime int64       `json:"lastEventTime"`
}

// Snapshot pairs a book state with the order-stream offset it reflects,
// so the engine can resume consumption from the right position.
type Snapshot struct {
	Symbol      string    `json:"symbol"`
	OrderOffset int64     `json:"orderOffset"`
	BookState   BookState `json:"bookState"`
}
