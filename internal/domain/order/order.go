package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusPaid          Status = "paid"
	StatusPaymentFailed Status = "payment_failed"
	StatusProcessing    Status = "processing"
	StatusShipped       Status = "shipped"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order must have at least one item")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownStatus     = errors.New("unknown order status")
)

// validTransitions defines the allowed state transitions. Forward moves along
// pending → paid → processing → shipped → completed may skip stages;
// payment_failed and cancelled are reachable from pending or paid only, and
// nothing leaves a terminal state.
var validTransitions = map[Status][]Status{
	StatusPending:       {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaid:          {StatusProcessing, StatusShipped, StatusCompleted, StatusPaymentFailed, StatusCancelled},
	StatusProcessing:    {StatusShipped, StatusCompleted},
	StatusShipped:       {StatusCompleted},
	StatusPaymentFailed: {},
	StatusCompleted:     {},
	StatusCancelled:     {},
}

// paidOrLater is the set of statuses that imply a successful payment was
// observed for the order's session.
var paidOrLater = map[Status]bool{
	StatusPaid:       true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusCompleted:  true,
}

func (s Status) IsPaidOrLater() bool {
	return paidOrLater[s]
}

// ParseStatus validates an externally supplied status string.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// CanTransitionTo reports whether the order may move to the target status.
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionError returns the specific error for an invalid transition.
func (o *Order) TransitionError(target Status) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.Status, target)
}

// LineItem is one line of a durable order. LineTotal is always
// UnitPrice * Quantity; Total on the order equals the sum of line totals.
type LineItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

// Order is the durable, authoritative record of a transaction, correlated to
// the payment provider by SessionID. SessionID is unique across orders.
type Order struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id"`
	CustomerEmail string     `json:"customer_email"`
	Items         []LineItem `json:"items"`
	Total         int64      `json:"total"`
	Currency      string     `json:"currency"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// New builds a pending order for a checkout session. The total is computed
// from the line totals, never taken from the caller.
func New(sessionID, customerEmail string, items []LineItem, currency string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	var total int64
	for _, item := range items {
		total += item.LineTotal
	}

	now := time.Now()
	return &Order{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		CustomerEmail: customerEmail,
		Items:         items,
		Total:         total,
		Currency:      currency,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
