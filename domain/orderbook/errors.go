package orderbook

import "errors"

var (
	// ErrInvalidOrder rejects non-positive quantities and limit orders
	// without a positive price. Raised before any state mutation.
	ErrInvalidOrder = errors.New("orderbook: invalid order")

	// ErrOrderNotFound is returned by Cancel when the target never
	// existed, already filled, or was already canceled.
	ErrOrderNotFound = errors.New("orderbook: order not found")

	// ErrBookCorrupted signals a detected internal invariant violation
	// (crossed book or inconsistent index). Once raised the book
	// refuses all further mutation.
	ErrBookCorrupted = errors.New("orderbook: book corrupted")
)
