package store

// Store is the persistence boundary: product catalog rows, the inventory
// counter and the checkout (order) records.
type Store interface {
	CreateProduct(name, desc string, price float64, quantity int) (int64, error)
	GetProduct(id int64) (ProductRow, error)
	ListProducts(search string, page int) ([]ProductRow, error)
	UpdateProduct(id int64, upd ProductUpdate) (ProductRow, error)
	DeleteProduct(id int64) error
	SetProductImage(id int64, image string) error

	HasSufficientStock(productID int64, qty int) (bool, error)
	DecrementStock(productID int64, qty int) error
	UpdateStock(productID int64, newQuantity int) error
	GetStock(productID int64) (int, error)

	CreateCheckout(userID *int64, total float64) (int64, error)
	AddCheckoutItem(checkoutID, productID int64, qty int, price, subTotal float64) (int64, error)

	Close() error
}
