package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "29.00 USD", FormatAmount(2900, "usd"))
	assert.Equal(t, "0.05 EUR", FormatAmount(5, "eur"))
	assert.Equal(t, "12.34 USD", FormatAmount(1234, "USD"))
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body := BuildOrderConfirmationBody("order-123", 2900, "usd", []OrderItem{
		{ProductID: "prod-a", Name: "Widget", Quantity: 2, UnitPrice: 1200, LineTotal: 2400},
		{ProductID: "prod-b", Quantity: 1, UnitPrice: 500, LineTotal: 500},
	})

	assert.Contains(t, body, "order-123")
	assert.Contains(t, body, "Widget")
	// Nameless items fall back to the product ID.
	assert.Contains(t, body, "prod-b")
	assert.Contains(t, body, "29.00 USD")
	assert.Contains(t, body, "24.00 USD")
}

func TestBuildStatusUpdateBody(t *testing.T) {
	body := BuildStatusUpdateBody("order-123", "shipped")

	assert.Contains(t, body, "order-123")
	assert.Contains(t, body, "shipped")
}
