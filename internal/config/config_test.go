package config

import (
	"testing"

	"github.com/example/storefront/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "order-events", cfg.KafkaTopic)
	assert.Equal(t, ModelShop, cfg.Capabilities.Model)
	assert.Equal(t, payment.ModePayment, cfg.Capabilities.CheckoutMode)
	assert.Zero(t, cfg.Capabilities.DepositPercent)
}

func TestLoad_BusinessModels(t *testing.T) {
	t.Setenv("BUSINESS_MODEL", "saas")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, payment.ModeSubscription, cfg.Capabilities.CheckoutMode)

	t.Setenv("BUSINESS_MODEL", "booking")
	t.Setenv("BOOKING_DEPOSIT_PERCENT", "30")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, payment.ModePayment, cfg.Capabilities.CheckoutMode)
	assert.Equal(t, 30, cfg.Capabilities.DepositPercent)
}

func TestLoad_BookingFullDepositChargesEverything(t *testing.T) {
	t.Setenv("BUSINESS_MODEL", "booking")
	t.Setenv("BOOKING_DEPOSIT_PERCENT", "100")

	cfg, err := Load()
	require.NoError(t, err)
	// 100% deposit means no scaling at all.
	assert.Zero(t, cfg.Capabilities.DepositPercent)
}

func TestLoad_UnknownBusinessModel(t *testing.T) {
	t.Setenv("BUSINESS_MODEL", "lemonade-stand")

	_, err := Load()
	assert.ErrorIs(t, err, ErrUnknownBusinessModel)
}

func TestLoad_InvalidDepositPercent(t *testing.T) {
	t.Setenv("BUSINESS_MODEL", "booking")
	t.Setenv("BOOKING_DEPOSIT_PERCENT", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidProviderTimeout(t *testing.T) {
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
