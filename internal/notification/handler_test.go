package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records what would have been emailed.
type fakeSender struct {
	confirmations []string // recipient per confirmation
	updates       []string // "recipient:status" per update
	err           error
}

func (f *fakeSender) SendOrderConfirmation(to, orderID string, total int64, currency string, items []email.OrderItem) error {
	if f.err != nil {
		return f.err
	}
	f.confirmations = append(f.confirmations, to)
	return nil
}

func (f *fakeSender) SendStatusUpdate(to, orderID, status string) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, to+":"+status)
	return nil
}

func encode(t *testing.T, ev order.StatusChanged) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return data
}

func statusChanged(from, to order.Status) order.StatusChanged {
	o, _ := order.New("cs_1", "shopper@example.com", []order.LineItem{
		{ProductID: "prod-a", ProductName: "Widget", Quantity: 1, UnitPrice: 1200, LineTotal: 1200},
	}, "usd")
	return order.NewStatusChanged(o, from, to)
}

func TestHandleMessage_PaidSendsConfirmation(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)

	ev := statusChanged(order.StatusPending, order.StatusPaid)
	err := h.HandleMessage(context.Background(), []byte(ev.OrderID), encode(t, ev))
	require.NoError(t, err)

	require.Len(t, sender.confirmations, 1)
	assert.Equal(t, "shopper@example.com", sender.confirmations[0])
	assert.Empty(t, sender.updates)
}

func TestHandleMessage_OtherTransitionsSendStatusUpdate(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)

	ev := statusChanged(order.StatusPaid, order.StatusShipped)
	err := h.HandleMessage(context.Background(), []byte(ev.OrderID), encode(t, ev))
	require.NoError(t, err)

	require.Len(t, sender.updates, 1)
	assert.Equal(t, "shopper@example.com:shipped", sender.updates[0])
}

func TestHandleMessage_NoOpTransitionIgnored(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)

	ev := statusChanged(order.StatusPaid, order.StatusPaid)
	err := h.HandleMessage(context.Background(), []byte(ev.OrderID), encode(t, ev))
	require.NoError(t, err)

	assert.Empty(t, sender.confirmations)
	assert.Empty(t, sender.updates)
}

func TestHandleMessage_MissingEmailIgnored(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)

	ev := statusChanged(order.StatusPending, order.StatusPaid)
	ev.CustomerEmail = ""
	err := h.HandleMessage(context.Background(), []byte(ev.OrderID), encode(t, ev))
	require.NoError(t, err)

	assert.Empty(t, sender.confirmations)
}

func TestHandleMessage_SendFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	h := NewHandler(sender)

	ev := statusChanged(order.StatusPending, order.StatusPaid)
	err := h.HandleMessage(context.Background(), []byte(ev.OrderID), encode(t, ev))
	assert.NoError(t, err)
}

func TestHandleMessage_BadPayloadIsSwallowed(t *testing.T) {
	h := NewHandler(&fakeSender{})

	err := h.HandleMessage(context.Background(), []byte("key"), []byte("{not json"))
	assert.NoError(t, err)
}

func TestHandleMessage_ForeignEventTypeIgnored(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)

	payload := []byte(`{"event_type":"SomethingElse","order_id":"o1","customer_email":"shopper@example.com","old_status":"pending","new_status":"paid"}`)
	err := h.HandleMessage(context.Background(), []byte("o1"), payload)
	require.NoError(t, err)

	assert.Empty(t, sender.confirmations)
	assert.Empty(t, sender.updates)
}
