package payment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// Mode selects the kind of hosted checkout session requested from the provider.
type Mode string

const (
	ModePayment      Mode = "payment"      // one-time charge
	ModeSubscription Mode = "subscription" // recurring charge
)

// LineItem is one priced line submitted to the provider. Amounts are in the
// smallest currency unit and are always computed server-side.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
	Currency   string
}

// SessionRequest describes a hosted checkout session to create.
type SessionRequest struct {
	LineItems         []LineItem
	Mode              Mode
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	CollectShipping   bool
	Metadata          map[string]string
}

// Session is the provider's handle for a created checkout session.
type Session struct {
	ID  string
	URL string
}

// EventType is the provider-neutral classification of an inbound webhook event.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.completed"
	EventCheckoutExpired     EventType = "checkout.expired"
	EventPaymentFailed       EventType = "payment.failed"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
	EventIgnored             EventType = "ignored"
)

// SubscriptionInfo carries the subscription fields the reconciler needs.
// ClientReferenceID is the user identity attached at checkout initiation; it is
// the only payload field trusted for ownership resolution.
type SubscriptionInfo struct {
	ID                string
	Status            string
	PriceID           string
	CurrentPeriodEnd  time.Time
	ClientReferenceID string
}

// Event is a verified, parsed payment-provider notification.
type Event struct {
	ID             string
	Type           EventType
	SessionID      string
	Paid           bool
	AmountTotal    int64
	Currency       string
	CustomerEmail  string
	SubscriptionID string
	Subscription   *SubscriptionInfo
}

// Provider is the boundary to the external payment provider. ParseEvent must
// verify the payload signature before returning an event.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}
