package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []LineItem {
	return []LineItem{
		{ProductID: "prod-a", ProductName: "Widget", Quantity: 2, UnitPrice: 1200, LineTotal: 2400},
		{ProductID: "prod-b", ProductName: "Gadget", Quantity: 1, UnitPrice: 500, LineTotal: 500},
	}
}

func TestNew_ComputesTotalFromLineTotals(t *testing.T) {
	o, err := New("sess-1", "shopper@example.com", testItems(), "usd")
	require.NoError(t, err)

	assert.Equal(t, int64(2900), o.Total)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "sess-1", o.SessionID)
	assert.NotEmpty(t, o.ID)
}

func TestNew_EmptyItems(t *testing.T) {
	o, err := New("sess-1", "shopper@example.com", nil, "usd")
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Nil(t, o)
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusPaymentFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusProcessing, true},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCompleted, true},
		{StatusPaid, StatusPaymentFailed, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusPending, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusShipped, StatusCompleted, true},
		{StatusShipped, StatusProcessing, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusPaid, false},
		{StatusCancelled, StatusPaid, false},
		{StatusPaymentFailed, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			o := &Order{Status: tt.from}
			assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to))
		})
	}
}

func TestTransitionError(t *testing.T) {
	o := &Order{Status: StatusCompleted}
	err := o.TransitionError(StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "completed")
	assert.Contains(t, err.Error(), "pending")
}

func TestIsPaidOrLater(t *testing.T) {
	assert.False(t, StatusPending.IsPaidOrLater())
	assert.True(t, StatusPaid.IsPaidOrLater())
	assert.True(t, StatusProcessing.IsPaidOrLater())
	assert.True(t, StatusShipped.IsPaidOrLater())
	assert.True(t, StatusCompleted.IsPaidOrLater())
	assert.False(t, StatusPaymentFailed.IsPaidOrLater())
	assert.False(t, StatusCancelled.IsPaidOrLater())
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, status)

	_, err = ParseStatus("teleported")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestNewStatusChanged(t *testing.T) {
	o, err := New("sess-1", "shopper@example.com", testItems(), "usd")
	require.NoError(t, err)

	ev := NewStatusChanged(o, StatusPending, StatusPaid)
	assert.Equal(t, EventStatusChanged, ev.EventType)
	assert.Equal(t, o.ID, ev.OrderID)
	assert.Equal(t, "sess-1", ev.SessionID)
	assert.Equal(t, StatusPending, ev.OldStatus)
	assert.Equal(t, StatusPaid, ev.NewStatus)
	assert.Equal(t, int64(2900), ev.Total)
	assert.False(t, ev.OccurredAt.IsZero())
}
