package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"shop-backend/metrics"
	"shop-backend/service"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc      service.ServiceInterface
	metrics  *metrics.ServerMetrics // nil disables instrumentation
	imageDir string
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, m *metrics.ServerMetrics, imageDir string) *Handler {
	return &Handler{svc: s, metrics: m, imageDir: imageDir}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.countRequests)

	// Products
	r.HandleFunc("/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/products", h.CreateProduct).Methods("POST")
	r.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods("GET")
	r.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods("PATCH")
	r.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods("DELETE")
	r.HandleFunc("/products/{id:[0-9]+}/image", h.UploadProductImage).Methods("POST")
	r.HandleFunc("/products/{id:[0-9]+}/stock", h.GetStock).Methods("GET")
	r.HandleFunc("/products/{id:[0-9]+}/stock", h.UpdateStock).Methods("PUT")

	// Checkout
	r.HandleFunc("/checkout", h.Checkout).Methods("POST")
}

// --- request / response shapes ---
type createProductReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type updateProductReq struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
}

type updateStockReq struct {
	Quantity *int `json:"quantity"`
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeFieldErrors(w http.ResponseWriter, code int, fields map[string]string) {
	writeJSON(w, code, map[string]interface{}{"errors": fields})
}

// userIDFrom extracts the authenticated user id set by the auth layer
// (X-User-ID header). Anonymous checkout is allowed, so a missing or
// malformed header yields nil rather than an error.
func userIDFrom(r *http.Request) *int64 {
	v := r.Header.Get("X-User-ID")
	if v == "" {
		return nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// statusWriter records the response code for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (h *Handler) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		name := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = tpl
			}
		}
		h.metrics.Requests.WithLabelValues(name, strconv.Itoa(sw.status)).Inc()
	})
}

func (h *Handler) countCheckout(outcome string) {
	if h.metrics == nil {
		return
	}
	h.metrics.Checkouts.WithLabelValues(outcome).Inc()
}

// --- Handlers ---

// CreateProduct handles POST /products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := h.svc.CreateProduct(r.Context(), req.Name, req.Description, req.Price, req.Quantity)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeFieldErrors(w, http.StatusUnprocessableEntity, ve.Fields)
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListProducts handles GET /products?search=...&page=N
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	ps, err := h.svc.ListProducts(r.Context(), search, page)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": ps, "page": page, "per_page": 10})
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		var nf *service.ProductNotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found."})
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProduct handles PATCH /products/{id}; absent fields keep their value
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := h.svc.UpdateProduct(r.Context(), id, service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		var ve *service.ValidationError
		var nf *service.ProductNotFoundError
		switch {
		case errors.As(err, &ve):
			writeFieldErrors(w, http.StatusUnprocessableEntity, ve.Fields)
		case errors.As(err, &nf):
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found."})
		default:
			writeErr(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		var nf *service.ProductNotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found."})
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStock handles PUT /products/{id}/stock (admin operation)
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity == nil {
		writeFieldErrors(w, http.StatusUnprocessableEntity, map[string]string{"quantity": "required"})
		return
	}

	if err := h.svc.UpdateStock(r.Context(), id, *req.Quantity); err != nil {
		var ve *service.ValidationError
		var nf *service.ProductNotFoundError
		switch {
		case errors.As(err, &ve):
			writeFieldErrors(w, http.StatusUnprocessableEntity, ve.Fields)
		case errors.As(err, &nf):
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found."})
		default:
			writeErr(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStock handles GET /products/{id}/stock
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}

	qty, err := h.svc.GetStock(r.Context(), id)
	if err != nil {
		var nf *service.ProductNotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found."})
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"product_id": id, "quantity": qty})
}

// Checkout handles POST /checkout
// body: { "cartItems": [{ "id": 1, "quantity": 2, "price": 10, "sub_total": 20 }], "total": 20 }
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	// Fields are decoded one by one so a type mismatch is reported against
	// the field that carries it, not the body as a whole.
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.countCheckout("validation_failed")
		writeFieldErrors(w, http.StatusBadRequest, map[string]string{"body": "invalid json"})
		return
	}

	fields := map[string]string{}
	var items []service.CartItem
	if rawItems, ok := raw["cartItems"]; !ok {
		fields["cartItems"] = "required and must be a non-empty array"
	} else if err := json.Unmarshal(rawItems, &items); err != nil {
		fields["cartItems"] = "must be an array of cart items"
	} else if len(items) == 0 {
		fields["cartItems"] = "required and must be a non-empty array"
	}
	var total *float64
	if rawTotal, ok := raw["total"]; !ok {
		fields["total"] = "required and must be numeric"
	} else if err := json.Unmarshal(rawTotal, &total); err != nil {
		fields["total"] = "must be numeric"
	} else if total == nil {
		fields["total"] = "required and must be numeric"
	}
	if len(fields) > 0 {
		h.countCheckout("validation_failed")
		writeFieldErrors(w, http.StatusBadRequest, fields)
		return
	}

	co, err := h.svc.Checkout(r.Context(), userIDFrom(r), items, *total)
	if err != nil {
		var ve *service.ValidationError
		var nf *service.ProductNotFoundError
		var is *service.InsufficientStockError
		switch {
		case errors.As(err, &ve):
			h.countCheckout("validation_failed")
			writeFieldErrors(w, http.StatusBadRequest, ve.Fields)
		case errors.As(err, &nf):
			h.countCheckout("product_not_found")
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error":      "Invalid product ID.",
				"product_id": nf.ProductID,
			})
		case errors.As(err, &is):
			h.countCheckout("insufficient_stock")
			writeJSON(w, http.StatusPreconditionFailed, map[string]interface{}{
				"error":      "Product quantity is exceeded.",
				"product_id": is.ProductID,
			})
		default:
			h.countCheckout("storage_error")
			writeErr(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.countCheckout("success")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Checkout was successful",
		"checkout_id": co.ID,
	})
}
