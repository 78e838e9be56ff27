package errors

import "errors"

var (
	// ErrUnknownProduct means the (product, color) pair has no inventory row.
	ErrUnknownProduct = errors.New("unknown product or color")

	// ErrInsufficientStock means the conditional write refused the hold; the
	// repository reports the current availability alongside it.
	ErrInsufficientStock = errors.New("insufficient stock")
)
