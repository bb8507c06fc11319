package store

import "database/sql"

// CreateCheckout persists the order header and returns its id. The header is
// written before any cart entry is examined and is never deleted by a later
// item failure.
func (s *PostgresStore) CreateCheckout(userID *int64, total float64) (int64, error) {
	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}
	var id int64
	err := s.DB.QueryRow(
		`INSERT INTO checkouts (user_id, total) VALUES ($1, $2) RETURNING id`,
		uid, total,
	).Scan(&id)
	return id, err
}

// AddCheckoutItem appends one line item. Quantity, price and sub_total are
// stored exactly as submitted by the client.
func (s *PostgresStore) AddCheckoutItem(checkoutID, productID int64, qty int, price, subTotal float64) (int64, error) {
	var id int64
	err := s.DB.QueryRow(
		`INSERT INTO checkout_items (checkout_id, product_id, quantity, price, sub_total) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		checkoutID, productID, qty, price, subTotal,
	).Scan(&id)
	return id, err
}
