package auction

import "errors"

var (
	// ErrUnauthorized is returned when a non-owner invokes a privileged operation.
	ErrUnauthorized = errors.New("caller is not the auction owner")
	// ErrNotCleared is returned by Reset before the first clearing.
	ErrNotCleared = errors.New("auction has not been cleared")
	// ErrOpenedShape is returned when declassified results do not have the
	// expected shape.
	ErrOpenedShape = errors.New("unexpected opened values")
	// ErrCapacityExceeded is returned when every order slot is taken.
	ErrCapacityExceeded = errors.New("order capacity exceeded")
	// ErrUnknownComputation is returned for a completion that does not belong
	// to the clearing in flight.
	ErrUnknownComputation = errors.New("unknown clearing computation")
	// ErrClearPending is returned when a clearing computation is already running.
	ErrClearPending = errors.New("clearing already in progress")
	// ErrInvalidPrices is returned when the price range is inverted or out
	// of bounds.
	ErrInvalidPrices = errors.New("invalid price range")
	// ErrDuplicateOrder is returned when an order id is submitted twice on
	// the same side of one round.
	ErrDuplicateOrder = errors.New("duplicate order id")
)
