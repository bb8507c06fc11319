package service

import (
	"context"

	models "shop-backend/model"
)

type ServiceInterface interface {
	CreateProduct(ctx context.Context, name, desc string, price float64, quantity int) (models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	ListProducts(ctx context.Context, search string, page int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) (models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetProductImage(ctx context.Context, id int64, image string) (string, error)
	UpdateStock(ctx context.Context, productID int64, newQuantity int) error
	GetStock(ctx context.Context, productID int64) (int, error)

	Checkout(ctx context.Context, userID *int64, items []CartItem, total float64) (models.Checkout, error)
}
