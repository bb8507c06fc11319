package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "shop-backend/model"
	"shop-backend/service"
)

// fakeService implements service.ServiceInterface via function fields.
type fakeService struct {
	CreateProductFn   func(ctx context.Context, name, desc string, price float64, quantity int) (models.Product, error)
	GetProductFn      func(ctx context.Context, id int64) (models.Product, error)
	ListProductsFn    func(ctx context.Context, search string, page int) ([]models.Product, error)
	UpdateProductFn   func(ctx context.Context, id int64, upd service.ProductUpdate) (models.Product, error)
	DeleteProductFn   func(ctx context.Context, id int64) error
	SetProductImageFn func(ctx context.Context, id int64, image string) (string, error)
	UpdateStockFn     func(ctx context.Context, productID int64, newQuantity int) error
	GetStockFn        func(ctx context.Context, productID int64) (int, error)
	CheckoutFn        func(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error)
}

func (f *fakeService) CreateProduct(ctx context.Context, name, desc string, price float64, quantity int) (models.Product, error) {
	return f.CreateProductFn(ctx, name, desc, price, quantity)
}
func (f *fakeService) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	return f.GetProductFn(ctx, id)
}
func (f *fakeService) ListProducts(ctx context.Context, search string, page int) ([]models.Product, error) {
	return f.ListProductsFn(ctx, search, page)
}
func (f *fakeService) UpdateProduct(ctx context.Context, id int64, upd service.ProductUpdate) (models.Product, error) {
	return f.UpdateProductFn(ctx, id, upd)
}
func (f *fakeService) DeleteProduct(ctx context.Context, id int64) error {
	return f.DeleteProductFn(ctx, id)
}
func (f *fakeService) SetProductImage(ctx context.Context, id int64, image string) (string, error) {
	return f.SetProductImageFn(ctx, id, image)
}
func (f *fakeService) UpdateStock(ctx context.Context, productID int64, newQuantity int) error {
	return f.UpdateStockFn(ctx, productID, newQuantity)
}
func (f *fakeService) GetStock(ctx context.Context, productID int64) (int, error) {
	return f.GetStockFn(ctx, productID)
}
func (f *fakeService) Checkout(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error) {
	return f.CheckoutFn(ctx, userID, items, total)
}

func newTestRouter(svc service.ServiceInterface) *mux.Router {
	h := NewHandler(svc, nil, "")
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestCheckout_Created(t *testing.T) {
	var gotUser *int64
	var gotItems []service.CartItem
	var gotTotal float64
	fs := &fakeService{
		CheckoutFn: func(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error) {
			gotUser, gotItems, gotTotal = userID, items, total
			return models.Checkout{ID: 7}, nil
		},
	}
	r := newTestRouter(fs)

	body := `{"cartItems":[{"id":1,"quantity":3,"price":10,"sub_total":30}],"total":30}`
	rr := doJSON(t, r, "POST", "/checkout", body, map[string]string{"X-User-ID": "42"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Checkout was successful")
	assert.Contains(t, rr.Body.String(), `"checkout_id":7`)
	require.NotNil(t, gotUser)
	assert.Equal(t, int64(42), *gotUser)
	require.Len(t, gotItems, 1)
	assert.Equal(t, int64(1), gotItems[0].ProductID)
	assert.Equal(t, 3, gotItems[0].Quantity)
	assert.Equal(t, 30.0, gotTotal)
}

func TestCheckout_AnonymousWhenHeaderMissing(t *testing.T) {
	var gotUser *int64 = new(int64)
	fs := &fakeService{
		CheckoutFn: func(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error) {
			gotUser = userID
			return models.Checkout{ID: 1}, nil
		},
	}
	r := newTestRouter(fs)

	body := `{"cartItems":[{"id":1,"quantity":1,"price":10,"sub_total":10}],"total":10}`
	rr := doJSON(t, r, "POST", "/checkout", body, nil)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Nil(t, gotUser)
}

func TestCheckout_ValidationErrors(t *testing.T) {
	called := false
	fs := &fakeService{
		CheckoutFn: func(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error) {
			called = true
			return models.Checkout{}, nil
		},
	}
	r := newTestRouter(fs)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing cartItems", `{"total":30}`, "cartItems"},
		{"empty cartItems", `{"cartItems":[],"total":30}`, "cartItems"},
		{"missing total", `{"cartItems":[{"id":1,"quantity":1,"price":10,"sub_total":10}]}`, "total"},
		{"non-numeric total", `{"cartItems":[{"id":1,"quantity":1,"price":10,"sub_total":10}],"total":"abc"}`, "total"},
		{"cartItems not an array", `{"cartItems":{"id":1},"total":30}`, "cartItems"},
		{"null total", `{"cartItems":[{"id":1,"quantity":1,"price":10,"sub_total":10}],"total":null}`, "total"},
		{"malformed body", `{"cartItems":`, "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, r, "POST", "/checkout", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp struct {
				Errors map[string]string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Contains(t, resp.Errors, tc.field)
			if tc.field != "body" {
				assert.NotContains(t, resp.Errors, "body")
			}
		})
	}
	assert.False(t, called, "validation failures must not reach the coordinator")
}

func TestCheckout_ProductNotFound(t *testing.T) {
	fs := &fakeService{
		CheckoutFn: func(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error) {
			return models.Checkout{ID: 5}, &service.ProductNotFoundError{ProductID: 99}
		},
	}
	r := newTestRouter(fs)

	body := `{"cartItems":[{"id":99,"quantity":1,"price":10,"sub_total":10}],"total":10}`
	rr := doJSON(t, r, "POST", "/checkout", body, nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid product ID.", resp["error"])
	assert.Equal(t, float64(99), resp["product_id"])
}

func TestCheckout_InsufficientStock(t *testing.T) {
	fs := &fakeService{
		CheckoutFn: func(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error) {
			return models.Checkout{ID: 5}, &service.InsufficientStockError{ProductID: 1, Requested: 3}
		},
	}
	r := newTestRouter(fs)

	body := `{"cartItems":[{"id":1,"quantity":3,"price":10,"sub_total":30}],"total":30}`
	rr := doJSON(t, r, "POST", "/checkout", body, nil)

	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Product quantity is exceeded.", resp["error"])
	assert.Equal(t, float64(1), resp["product_id"])
}

func TestCheckout_StorageFailure(t *testing.T) {
	fs := &fakeService{
		CheckoutFn: func(ctx context.Context, userID *int64, items []service.CartItem, total float64) (models.Checkout, error) {
			return models.Checkout{}, errors.New("pq: connection refused")
		},
	}
	r := newTestRouter(fs)

	body := `{"cartItems":[{"id":1,"quantity":1,"price":10,"sub_total":10}],"total":10}`
	rr := doJSON(t, r, "POST", "/checkout", body, nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetProduct_OKAndNotFound(t *testing.T) {
	fs := &fakeService{
		GetProductFn: func(ctx context.Context, id int64) (models.Product, error) {
			if id != 1 {
				return models.Product{}, &service.ProductNotFoundError{ProductID: id}
			}
			return models.Product{ID: 1, Name: "phone", Price: 499, Quantity: 5}, nil
		},
	}
	r := newTestRouter(fs)

	rr := doJSON(t, r, "GET", "/products/1", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "phone", p.Name)

	rr = doJSON(t, r, "GET", "/products/9", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Product not found.")
}

func TestCreateProduct_ValidationMapsTo422(t *testing.T) {
	fs := &fakeService{
		CreateProductFn: func(ctx context.Context, name, desc string, price float64, quantity int) (models.Product, error) {
			return models.Product{}, &service.ValidationError{Fields: map[string]string{"name": "required, 3 to 100 characters"}}
		},
	}
	r := newTestRouter(fs)

	rr := doJSON(t, r, "POST", "/products", `{"name":"ab","description":"a description","price":10,"quantity":1}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "name")
}

func TestListProducts_ParsesSearchAndPage(t *testing.T) {
	var gotSearch string
	var gotPage int
	fs := &fakeService{
		ListProductsFn: func(ctx context.Context, search string, page int) ([]models.Product, error) {
			gotSearch, gotPage = search, page
			return []models.Product{{ID: 1, Name: "phone"}}, nil
		},
	}
	r := newTestRouter(fs)

	rr := doJSON(t, r, "GET", "/products?search=pho&page=3", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pho", gotSearch)
	assert.Equal(t, 3, gotPage)

	// bad page falls back to 1
	rr = doJSON(t, r, "GET", "/products?page=zero", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, gotPage)
}

func TestUpdateProduct_PartialBody(t *testing.T) {
	var gotUpd service.ProductUpdate
	fs := &fakeService{
		UpdateProductFn: func(ctx context.Context, id int64, upd service.ProductUpdate) (models.Product, error) {
			gotUpd = upd
			return models.Product{ID: id, Name: *upd.Name}, nil
		},
	}
	r := newTestRouter(fs)

	rr := doJSON(t, r, "PATCH", "/products/1", `{"name":"renamed"}`, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotUpd.Name)
	assert.Equal(t, "renamed", *gotUpd.Name)
	assert.Nil(t, gotUpd.Price)
	assert.Nil(t, gotUpd.Quantity)
}

func TestDeleteProduct_NoContent(t *testing.T) {
	fs := &fakeService{
		DeleteProductFn: func(ctx context.Context, id int64) error { return nil },
	}
	r := newTestRouter(fs)

	rr := doJSON(t, r, "DELETE", "/products/1", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestUpdateStock_RequiresQuantity(t *testing.T) {
	fs := &fakeService{
		UpdateStockFn: func(ctx context.Context, productID int64, newQuantity int) error { return nil },
	}
	r := newTestRouter(fs)

	rr := doJSON(t, r, "PUT", "/products/1/stock", `{}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doJSON(t, r, "PUT", "/products/1/stock", `{"quantity":7}`, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGetStock(t *testing.T) {
	fs := &fakeService{
		GetStockFn: func(ctx context.Context, productID int64) (int, error) {
			if productID == 1 {
				return 12, nil
			}
			return 0, &service.ProductNotFoundError{ProductID: productID}
		},
	}
	r := newTestRouter(fs)

	rr := doJSON(t, r, "GET", "/products/1/stock", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(12), resp["quantity"])
	assert.Equal(t, float64(1), resp["product_id"])

	rr = doJSON(t, r, "GET", "/products/2/stock", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUserIDFrom_MalformedHeaderIsAnonymous(t *testing.T) {
	req := httptest.NewRequest("POST", "/checkout", bytes.NewReader(nil))
	req.Header.Set("X-User-ID", "not-a-number")
	assert.Nil(t, userIDFrom(req))

	req.Header.Set("X-User-ID", "17")
	id := userIDFrom(req)
	require.NotNil(t, id)
	assert.Equal(t, int64(17), *id)
}
