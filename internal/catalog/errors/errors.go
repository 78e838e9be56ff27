package errors

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrPromoNotFound   = errors.New("promo code not found")
)
