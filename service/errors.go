package service

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports which request fields failed shape validation.
// Nothing is persisted when it is returned from the top of a call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// ProductNotFoundError identifies the cart entry (or catalog call) that
// referenced a missing product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError identifies the cart entry that asked for more than
// the quantity on hand.
type InsufficientStockError struct {
	ProductID int64
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %d quantity exceeded (requested %d)", e.ProductID, e.Requested)
}
