package inventory

import "time"

// Record tracks the on-hand quantity and moving average purchase price of
// one inventory item. Name is the identity; lookups are exact-match.
// Version guards concurrent updates.
type Record struct {
	Name      string    `json:"name"`
	Qty       int       `json:"qty"`
	AvgPrice  float64   `json:"avg_price"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Inflow is one received batch of an item, as it appears on a bill line.
type Inflow struct {
	Name  string
	Qty   int
	Price float64
}
