package service

import (
	"context"
	"errors"
	"log"

	"shop-backend/cache"
	models "shop-backend/model"
	"shop-backend/store"
)

type Service struct {
	store store.Store
	cache cache.ProductCache // nil disables caching
}

func NewService(s store.Store, c cache.ProductCache) *Service {
	return &Service{store: s, cache: c}
}

// ProductUpdate is a partial catalog update; nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Quantity    *int
}

func (s *Service) CreateProduct(ctx context.Context, name, desc string, price float64, quantity int) (models.Product, error) {
	fields := map[string]string{}
	if l := len(name); l < 3 || l > 100 {
		fields["name"] = "required, 3 to 100 characters"
	}
	if len(desc) < 5 {
		fields["description"] = "required, at least 5 characters"
	}
	if price < 0 {
		fields["price"] = "must be >= 0"
	}
	if quantity < 0 {
		fields["quantity"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return models.Product{}, &ValidationError{Fields: fields}
	}

	id, err := s.store.CreateProduct(name, desc, price, quantity)
	if err != nil {
		return models.Product{}, err
	}
	row, err := s.store.GetProduct(id)
	if err != nil {
		return models.Product{}, err
	}
	return productFromRow(row), nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, id)
		if err == nil {
			return *p, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("product cache get %d: %v", id, err)
		}
	}

	row, err := s.store.GetProduct(id)
	if errors.Is(err, store.ErrProductNotFound) {
		return models.Product{}, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return models.Product{}, err
	}

	p := productFromRow(row)
	if s.cache != nil {
		if err := s.cache.Set(ctx, &p); err != nil {
			log.Printf("product cache set %d: %v", id, err)
		}
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, search string, page int) ([]models.Product, error) {
	rows, err := s.store.ListProducts(search, page)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, productFromRow(r))
	}
	return out, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) (models.Product, error) {
	fields := map[string]string{}
	if upd.Name != nil {
		if l := len(*upd.Name); l < 3 || l > 100 {
			fields["name"] = "3 to 100 characters"
		}
	}
	if upd.Description != nil && len(*upd.Description) < 5 {
		fields["description"] = "at least 5 characters"
	}
	if upd.Price != nil && *upd.Price < 0 {
		fields["price"] = "must be >= 0"
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		fields["quantity"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return models.Product{}, &ValidationError{Fields: fields}
	}

	row, err := s.store.UpdateProduct(id, store.ProductUpdate{
		Name:        upd.Name,
		Description: upd.Description,
		Price:       upd.Price,
		Quantity:    upd.Quantity,
	})
	if errors.Is(err, store.ErrProductNotFound) {
		return models.Product{}, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return models.Product{}, err
	}
	s.dropCachedProduct(ctx, id)
	return productFromRow(row), nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.store.DeleteProduct(id)
	if errors.Is(err, store.ErrProductNotFound) {
		return &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return err
	}
	s.dropCachedProduct(ctx, id)
	return nil
}

// SetProductImage records the stored image file for a product and returns
// the previous file name so the caller can remove it.
func (s *Service) SetProductImage(ctx context.Context, id int64, image string) (string, error) {
	row, err := s.store.GetProduct(id)
	if errors.Is(err, store.ErrProductNotFound) {
		return "", &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return "", err
	}

	if err := s.store.SetProductImage(id, image); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return "", &ProductNotFoundError{ProductID: id}
		}
		return "", err
	}
	s.dropCachedProduct(ctx, id)

	if row.Image.Valid {
		return row.Image.String, nil
	}
	return "", nil
}

func (s *Service) UpdateStock(ctx context.Context, productID int64, newQuantity int) error {
	if newQuantity < 0 {
		return &ValidationError{Fields: map[string]string{"quantity": "must be >= 0"}}
	}
	err := s.store.UpdateStock(productID, newQuantity)
	if errors.Is(err, store.ErrProductNotFound) {
		return &ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return err
	}
	s.dropCachedProduct(ctx, productID)
	return nil
}

// GetStock reads the current quantity-on-hand straight from the store; it
// bypasses the product cache so admin reads see the live counter.
func (s *Service) GetStock(ctx context.Context, productID int64) (int, error) {
	qty, err := s.store.GetStock(productID)
	if errors.Is(err, store.ErrProductNotFound) {
		return 0, &ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func (s *Service) dropCachedProduct(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		log.Printf("drop cached product %d: %v", id, err)
	}
}

func productFromRow(r store.ProductRow) models.Product {
	p := models.Product{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
	}
	if r.Description.Valid {
		p.Description = r.Description.String
	}
	if r.Image.Valid {
		p.Image = r.Image.String
	}
	return p
}
