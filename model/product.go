package models

import "time"

// Product is the catalog entry as served to clients. Quantity is the
// quantity-on-hand counter decremented by checkouts; it never goes negative.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
