package store

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/subscription"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateSession = errors.New("order already exists for session")
	ErrEmailTaken       = errors.New("email already registered")
)

// Checkout session statuses. Sessions transition out of initiated only via
// the payment event receiver.
const (
	SessionInitiated = "initiated"
	SessionCompleted = "completed"
	SessionExpired   = "expired"
)

// CheckoutSession is the immutable record of one checkout attempt, including
// the resolved cart snapshot taken at initiation time.
type CheckoutSession struct {
	ID            string           `json:"id"`
	VisitorID     string           `json:"visitor_id"`
	CustomerEmail string           `json:"customer_email"`
	Items         []order.LineItem `json:"items"`
	Total         int64            `json:"total"`
	Currency      string           `json:"currency"`
	Status        string           `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Product is a catalog entry; UnitPrice is the authoritative price in the
// smallest currency unit.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnitPrice   int64     `json:"unit_price"`
	Currency    string    `json:"currency"`
	Active      bool      `json:"active"`
	Digital     bool      `json:"digital"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderLedger is the durable source of truth for orders. All single-order
// mutations are serialized per session/order row; MarkPaid is the atomic
// create-or-update the webhook receiver relies on.
type OrderLedger interface {
	// CreatePending inserts a pending order stub. A second stub for the same
	// session fails with ErrDuplicateSession.
	CreatePending(ctx context.Context, o *order.Order) error

	// MarkPaid transitions the order for sessionID to paid, inserting seed
	// (as paid) when no order exists yet. Returns the resulting order, the
	// prior status, and whether anything changed. A nil seed with no existing
	// order returns ErrNotFound. Orders already paid-or-later, failed, or
	// cancelled are left untouched with changed=false.
	MarkPaid(ctx context.Context, sessionID string, seed *order.Order) (*order.Order, order.Status, bool, error)

	// MarkFailed transitions a pending or paid order to payment_failed.
	// A missing order returns (nil, "", false, nil): failures never fabricate
	// an order.
	MarkFailed(ctx context.Context, sessionID string) (*order.Order, order.Status, bool, error)

	// UpdateStatus applies a transition from the monotonic table, rejecting
	// anything else with order.ErrInvalidTransition and leaving the row
	// unchanged. Returns the updated order and the prior status.
	UpdateStatus(ctx context.Context, orderID string, next order.Status) (*order.Order, order.Status, error)

	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*order.Order, error)
	ListRecent(ctx context.Context, limit int) ([]*order.Order, error)
}

// CartStore persists visitor carts. Get distinguishes a cart that was never
// written (found=false) from a stored empty cart.
type CartStore interface {
	Get(ctx context.Context, visitorID string) (*cart.Cart, bool, error)
	Save(ctx context.Context, c *cart.Cart) error
}

type ProductCatalog interface {
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
}

type CheckoutSessionStore interface {
	Create(ctx context.Context, s *CheckoutSession) error
	Get(ctx context.Context, id string) (*CheckoutSession, error)
	SetStatus(ctx context.Context, id, status string) error
}

type SubscriptionStore interface {
	Upsert(ctx context.Context, s *subscription.Subscription) error
	// Cancel is idempotent; changed=false when the subscription is unknown or
	// already cancelled.
	Cancel(ctx context.Context, id string) (bool, error)
	GetByUser(ctx context.Context, userID string) (*subscription.Subscription, error)
}

// WebhookEventStore deduplicates provider events by their event ID.
type WebhookEventStore interface {
	// MarkProcessed records the event ID, returning false when it was already
	// recorded by an earlier delivery.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)

	// Forget removes a recorded event ID so the provider's retry of that
	// delivery is processed instead of being skipped as a duplicate.
	Forget(ctx context.Context, eventID string) error
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
