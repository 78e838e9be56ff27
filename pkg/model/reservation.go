package model

import "time"

// Reservation is a time-bounded hold on units of one product color by one
// anonymous session. Key = (ProductID, Color, SessionID); at most one live
// row exists per key.
type Reservation struct {
	ProductID string    `json:"productId"`
	Color     string    `json:"color"`
	SessionID string    `json:"sessionId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsLive reports whether the reservation still counts toward the ledger.
// Expired rows are reclaimed lazily, so liveness is always checked against
// the clock rather than row existence.
func (r *Reservation) IsLive(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

// CartItem identifies one product color in a client's cart.
type CartItem struct {
	ProductID string `json:"productId" validate:"required"`
	Color     string `json:"color" validate:"required"`
}

// ReserveRequest is the POST /cart/reserve body. Quantity is deliberately
// untyped: the endpoint must reject fractional and non-numeric quantities
// with a validation error rather than a generic decode failure.
type ReserveRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Color     string `json:"color" validate:"required"`
	Quantity  any    `json:"quantity"`
	SessionID string `json:"sessionId" validate:"required,uuid"`
}

// ReleaseRequest is the POST /cart/release body.
type ReleaseRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Color     string `json:"color" validate:"required"`
	SessionID string `json:"sessionId" validate:"required,uuid"`
}

// ValidateRequest is the POST /cart/validate body.
type ValidateRequest struct {
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
}
