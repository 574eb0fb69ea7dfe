package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/email"
)

// Handler consumes order status-change events and mails the customer.
// Notification is best-effort: a send failure is logged and the message is
// considered handled, so the ledger is never affected and the stream never
// stalls behind a broken mailbox.
type Handler struct {
	sender email.Sender
}

func NewHandler(sender email.Sender) *Handler {
	return &Handler{sender: sender}
}

// HandleMessage processes one Kafka message. The returned error is reserved
// for undecodable payloads; delivery failures are swallowed after logging.
func (h *Handler) HandleMessage(ctx context.Context, key, value []byte) error {
	var ev order.StatusChanged
	if err := json.Unmarshal(value, &ev); err != nil {
		log.Printf("[Notification] Skipping undecodable message (key %s): %v", key, err)
		return nil
	}

	if ev.EventType != order.EventStatusChanged {
		return nil
	}
	if ev.OldStatus == ev.NewStatus {
		return nil
	}
	if ev.CustomerEmail == "" {
		log.Printf("[Notification] Order %s has no customer email, skipping", ev.OrderID)
		return nil
	}

	var err error
	switch ev.NewStatus {
	case order.StatusPaid:
		err = h.sender.SendOrderConfirmation(ev.CustomerEmail, ev.OrderID, ev.Total, ev.Currency, emailItems(ev.Items))
	default:
		err = h.sender.SendStatusUpdate(ev.CustomerEmail, ev.OrderID, string(ev.NewStatus))
	}
	if err != nil {
		log.Printf("[Notification] Failed to email %s about order %s (%s -> %s): %v",
			ev.CustomerEmail, ev.OrderID, ev.OldStatus, ev.NewStatus, err)
		return nil
	}

	log.Printf("[Notification] Emailed %s about order %s (%s -> %s)",
		ev.CustomerEmail, ev.OrderID, ev.OldStatus, ev.NewStatus)
	return nil
}

func emailItems(items []order.LineItem) []email.OrderItem {
	out := make([]email.OrderItem, len(items))
	for i, it := range items {
		out[i] = email.OrderItem{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		}
	}
	return out
}
