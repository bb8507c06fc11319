package cache

import (
	"context"
	"errors"

	models "shop-backend/model"
)

// ProductCache fronts catalog product reads. Checkout always reads the
// authoritative row from the store; mutations must Delete the cached entry.
type ProductCache interface {
	Get(ctx context.Context, productID int64) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, productID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
