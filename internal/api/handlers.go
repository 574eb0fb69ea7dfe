package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/webhook"
	"github.com/google/uuid"
)

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	products  store.ProductCatalog
	carts     store.CartStore
	checkout  *checkout.Service
	ledger    store.OrderLedger
	subs      store.SubscriptionStore
	publisher webhook.EventPublisher
	db        Pinger
}

func NewHandlers(
	products store.ProductCatalog,
	carts store.CartStore,
	checkoutSvc *checkout.Service,
	ledger store.OrderLedger,
	subs store.SubscriptionStore,
	publisher webhook.EventPublisher,
	db Pinger,
) *Handlers {
	return &Handlers{
		products:  products,
		carts:     carts,
		checkout:  checkoutSvc,
		ledger:    ledger,
		subs:      subs,
		publisher: publisher,
		db:        db,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondJSONError(w, "Failed to list products", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	product, err := h.products.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to load product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		UnitPrice   int64  `json:"unit_price"`
		Currency    string `json:"currency"`
		Digital     bool   `json:"digital"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.UnitPrice <= 0 || req.Currency == "" {
		respondJSONError(w, "name, unit_price and currency are required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	p := &store.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Currency:    strings.ToLower(req.Currency),
		Active:      true,
		Digital:     req.Digital,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		respondJSONError(w, "Failed to create product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	visitorID := ensureVisitorID(w, r)
	c, found, err := h.carts.Get(r.Context(), visitorID)
	if err != nil {
		respondJSONError(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !found {
		c = cart.New(visitorID)
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	visitorID := ensureVisitorID(w, r)

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID == "" {
		respondJSONError(w, "product_id is required", http.StatusBadRequest)
		return
	}

	product, err := h.products.Get(r.Context(), req.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to load product", http.StatusInternalServerError)
		return
	}
	if !product.Active {
		respondJSONError(w, "Product is not available", http.StatusUnprocessableEntity)
		return
	}

	c, found, err := h.carts.Get(r.Context(), visitorID)
	if err != nil {
		respondJSONError(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !found {
		c = cart.New(visitorID)
	}

	c.AddItem(product.ID, req.Quantity, product.UnitPrice)
	if err := h.carts.Save(r.Context(), c); err != nil {
		respondJSONError(w, "Failed to save cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	visitorID := ensureVisitorID(w, r)
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, found, err := h.carts.Get(r.Context(), visitorID)
	if err != nil {
		respondJSONError(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !found {
		respondJSONError(w, "Cart is empty", http.StatusNotFound)
		return
	}

	c.UpdateQuantity(productID, req.Quantity)
	if err := h.carts.Save(r.Context(), c); err != nil {
		respondJSONError(w, "Failed to save cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	visitorID := ensureVisitorID(w, r)
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	c, found, err := h.carts.Get(r.Context(), visitorID)
	if err != nil {
		respondJSONError(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !found {
		respondJSONError(w, "Cart is empty", http.StatusNotFound)
		return
	}

	c.RemoveItem(productID)
	if err := h.carts.Save(r.Context(), c); err != nil {
		respondJSONError(w, "Failed to save cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	visitorID := ensureVisitorID(w, r)

	c, found, err := h.carts.Get(r.Context(), visitorID)
	if err != nil {
		respondJSONError(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !found {
		c = cart.New(visitorID)
	}

	c.Clear()
	if err := h.carts.Save(r.Context(), c); err != nil {
		respondJSONError(w, "Failed to save cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Checkout Handlers

func (h *Handlers) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	visitorID := ensureVisitorID(w, r)

	var cust checkout.Customer
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		cust.UserID = claims.UserID
		cust.Email = claims.Email
	} else {
		// Guests may supply an email for the receipt.
		var req struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		cust.Email = req.Email
	}

	result, err := h.checkout.Initiate(r.Context(), visitorID, cust)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handlers) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	visitorID := ensureVisitorID(w, r)
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondJSONError(w, "session_id is required", http.StatusBadRequest)
		return
	}

	o, paid, err := h.checkout.Confirm(r.Context(), visitorID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Unknown checkout session", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to confirm checkout", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"order": o,
		"paid":  paid,
	})
}

func respondCheckoutError(w http.ResponseWriter, err error) {
	var itemErr *catalog.ItemError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondJSONError(w, "Cart is empty", http.StatusBadRequest)
	case errors.As(err, &itemErr):
		respondJSONError(w, itemErr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, payment.ErrProviderUnavailable):
		respondJSONError(w, "Payment provider unavailable, try again later", http.StatusBadGateway)
	default:
		respondJSONError(w, "Failed to initiate checkout", http.StatusInternalServerError)
	}
}

// Order Handlers

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")
	id = strings.TrimSuffix(id, "/status")

	o, err := h.ledger.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to load order", http.StatusInternalServerError)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != "admin" && !strings.EqualFold(claims.Email, o.CustomerEmail) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	orders, err := h.ledger.ListRecent(r.Context(), limit)
	if err != nil {
		respondJSONError(w, "Failed to list orders", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus applies a fulfillment transition (paid -> processing ->
// shipped -> completed). The same monotonic table that guards webhook writes
// guards this path, so an admin cannot resurrect a terminal order.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")
	id = strings.TrimSuffix(id, "/status")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	next, err := order.ParseStatus(req.Status)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, prev, err := h.ledger.UpdateStatus(r.Context(), id, next)
	if errors.Is(err, order.ErrOrderNotFound) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, order.ErrInvalidTransition) {
		respondJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to update order", http.StatusInternalServerError)
		return
	}

	if h.publisher != nil && prev != next {
		event := order.NewStatusChanged(o, prev, next)
		// Best-effort: the status change is durable either way.
		if err := h.publisher.Publish(r.Context(), o.ID, event); err != nil {
			log.Printf("[API] Failed to publish status change for order %s: %v", o.ID, err)
		}
	}

	respondJSON(w, http.StatusOK, o)
}

// Subscription Handlers

func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sub, err := h.subs.GetByUser(r.Context(), claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "No subscription", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to load subscription", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// Health

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
