package bookv1

import "errors"

var (
	// ErrNilOrder is returned when a nil order is handed to a level.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrInvalidVolume is returned for zero or negative order volume.
	ErrInvalidVolume = errors.New("volume must be positive")
	// ErrInvalidPrice is returned for a non-positive limit price.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidSide is returned when a side is neither BID nor ASK.
	ErrInvalidSide = errors.New("invalid book side")
	// ErrInvalidQuote is returned when derived quotes are crossed or negative.
	ErrInvalidQuote = errors.New("quote outside valid range")
	// ErrOrderNotFound is returned when an order id is absent from the targeted side.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder is returned when an order id is already resting on a side.
	ErrDuplicateOrder = errors.New("order id already resting")
)
