package models

import "time"

// Checkout is the persisted order header. UserID is nil for anonymous
// checkouts. The total is taken from the request and not recomputed.
type Checkout struct {
	ID        int64          `json:"id"`
	UserID    *int64         `json:"user_id"`
	Total     float64        `json:"total"`
	Items     []CheckoutItem `json:"items,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// CheckoutItem is one line of a checkout, stored exactly as submitted.
type CheckoutItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	SubTotal  float64 `json:"sub_total"`
}
