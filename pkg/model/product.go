package model

// Product is a storefront item with per-color inventory.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	IsAvailable bool           `json:"isAvailable"`
	Colors      []ColorVariant `json:"colors,omitempty"`
}

type ColorVariant struct {
	Name           string `json:"name"`
	TotalStock     int    `json:"totalStock"`
	AvailableStock int    `json:"availableStock"`
}

// ColorStock is a color's derived availability, as served by the
// available-stock endpoint.
type ColorStock struct {
	Name           string `json:"name"`
	AvailableStock int    `json:"availableStock"`
}
