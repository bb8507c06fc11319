package store

import (
	"database/sql"
	"errors"
)

// ErrInsufficientStock returned when requested qty exceeds available stock.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrProductNotFound returned when a product id does not exist.
var ErrProductNotFound = errors.New("product not found")

// HasSufficientStock reports whether the product exists and has at least
// qty units on hand. A missing product is not an error, just false.
func (s *PostgresStore) HasSufficientStock(productID int64, qty int) (bool, error) {
	var quantity int
	err := s.DB.QueryRow(`SELECT quantity FROM products WHERE id=$1`, productID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return quantity >= qty, nil
}

// DecrementStock reduces quantity-on-hand by qty as a single conditional
// update. Concurrent checkouts racing on the same product serialize on this
// statement, so the counter never goes negative.
func (s *PostgresStore) DecrementStock(productID int64, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be > 0")
	}
	res, err := s.DB.Exec(
		`UPDATE products SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1`,
		qty, productID,
	)
	if err != nil {
		return err
	}
	ra, _ := res.RowsAffected()
	if ra == 1 {
		return nil
	}

	// zero rows updated: either the product is gone or stock ran out
	var exists bool
	if err := s.DB.QueryRow(`SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

// UpdateStock sets the absolute stock for a product (admin operation).
func (s *PostgresStore) UpdateStock(productID int64, newQuantity int) error {
	if newQuantity < 0 {
		return errors.New("stock cannot be negative")
	}
	res, err := s.DB.Exec(`UPDATE products SET quantity=$1 WHERE id=$2`, newQuantity, productID)
	if err != nil {
		return err
	}
	ra, _ := res.RowsAffected()
	if ra == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetStock returns current stock for a product.
func (s *PostgresStore) GetStock(productID int64) (int, error) {
	var quantity int
	err := s.DB.QueryRow(`SELECT quantity FROM products WHERE id=$1`, productID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	return quantity, nil
}
