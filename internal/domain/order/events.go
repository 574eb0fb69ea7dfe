package order

import "time"

const EventStatusChanged = "OrderStatusChanged"

// StatusChanged is published whenever an order actually transitions state.
// It is never published for idempotent no-op writes, so replayed payment
// events produce at most one notification per transition.
type StatusChanged struct {
	EventType     string     `json:"event_type"`
	OrderID       string     `json:"order_id"`
	SessionID     string     `json:"session_id"`
	CustomerEmail string     `json:"customer_email"`
	OldStatus     Status     `json:"old_status"`
	NewStatus     Status     `json:"new_status"`
	Items         []LineItem `json:"items"`
	Total         int64      `json:"total"`
	Currency      string     `json:"currency"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// NewStatusChanged builds the event for a completed transition.
func NewStatusChanged(o *Order, from, to Status) StatusChanged {
	return StatusChanged{
		EventType:     EventStatusChanged,
		OrderID:       o.ID,
		SessionID:     o.SessionID,
		CustomerEmail: o.CustomerEmail,
		OldStatus:     from,
		NewStatus:     to,
		Items:         o.Items,
		Total:         o.Total,
		Currency:      o.Currency,
		OccurredAt:    time.Now(),
	}
}
