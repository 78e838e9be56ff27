package model

import "time"

const (
	PromoKindPercentage = "percentage"
	PromoKindFixed      = "fixed"
	PromoKindAccess     = "access"
)

// PromoCode is peripheral to the reservation core: the storefront verifies
// codes but redemption bookkeeping belongs to the payment flow.
type PromoCode struct {
	Code      string     `json:"code"`
	Kind      string     `json:"kind"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UsageCap  *int       `json:"usageCap,omitempty"`
	UsedCount int        `json:"usedCount"`
}

// Usable reports whether the code can still be applied at the given instant.
func (p *PromoCode) Usable(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	if p.UsageCap != nil && p.UsedCount >= *p.UsageCap {
		return false
	}
	return true
}

type PromoValidateRequest struct {
	Code string `json:"code" validate:"required,min=3,max=64"`
}
