package subscription

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusTrialing  Status = "trialing"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
)

// Subscription mirrors the provider's subscription object, keyed by the
// provider-issued subscription ID. UserID is resolved from the identity
// attached at checkout initiation, never from other payload fields.
type Subscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Status           Status    `json:"status"`
	PriceID          string    `json:"price_id"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FromProviderStatus maps a provider status string onto the local status set,
// passing through unknown values unchanged.
func FromProviderStatus(s string) Status {
	switch s {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due", "unpaid":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCancelled
	default:
		return Status(s)
	}
}
