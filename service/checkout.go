package service

import (
	"context"
	"errors"
	"fmt"

	models "shop-backend/model"
	"shop-backend/store"
)

// CartItem is one entry of a checkout request. Price and sub_total are
// client-supplied and persisted as-is.
type CartItem struct {
	ProductID int64   `json:"id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	SubTotal  float64 `json:"sub_total"`
}

// Checkout converts a cart into a persisted order plus inventory deductions.
//
// The order header is written before any cart entry is examined, and entries
// are processed sequentially in submission order. A failing entry aborts the
// loop and reports which product failed; the header, any line items already
// written and any stock already deducted stay persisted. There is no
// compensation step.
func (s *Service) Checkout(ctx context.Context, userID *int64, items []CartItem, total float64) (models.Checkout, error) {
	if len(items) == 0 {
		return models.Checkout{}, &ValidationError{Fields: map[string]string{"cartItems": "must be a non-empty array"}}
	}
	for i, it := range items {
		if it.Quantity <= 0 {
			return models.Checkout{}, &ValidationError{Fields: map[string]string{
				fmt.Sprintf("cartItems.%d.quantity", i): "must be a positive integer",
			}}
		}
	}

	checkoutID, err := s.store.CreateCheckout(userID, total)
	if err != nil {
		return models.Checkout{}, fmt.Errorf("create checkout: %w", err)
	}
	co := models.Checkout{ID: checkoutID, UserID: userID, Total: total}

	for _, it := range items {
		if _, err := s.store.GetProduct(it.ProductID); err != nil {
			if errors.Is(err, store.ErrProductNotFound) {
				return co, &ProductNotFoundError{ProductID: it.ProductID}
			}
			return co, fmt.Errorf("look up product %d: %w", it.ProductID, err)
		}

		ok, err := s.store.HasSufficientStock(it.ProductID, it.Quantity)
		if err != nil {
			return co, fmt.Errorf("check stock for product %d: %w", it.ProductID, err)
		}
		if !ok {
			return co, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity}
		}

		if _, err := s.store.AddCheckoutItem(checkoutID, it.ProductID, it.Quantity, it.Price, it.SubTotal); err != nil {
			return co, fmt.Errorf("add checkout item for product %d: %w", it.ProductID, err)
		}

		if err := s.store.DecrementStock(it.ProductID, it.Quantity); err != nil {
			switch {
			case errors.Is(err, store.ErrInsufficientStock):
				// a concurrent checkout drained the stock between the
				// sufficiency check and the decrement
				return co, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity}
			case errors.Is(err, store.ErrProductNotFound):
				return co, &ProductNotFoundError{ProductID: it.ProductID}
			default:
				return co, fmt.Errorf("decrement stock for product %d: %w", it.ProductID, err)
			}
		}
		s.dropCachedProduct(ctx, it.ProductID)

		co.Items = append(co.Items, models.CheckoutItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			SubTotal:  it.SubTotal,
		})
	}

	return co, nil
}
