package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "whsec")
	t.Setenv("BASE_URL", "https://book.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://book.example.com", cfg.BaseURL)
	assert.Equal(t, "hmac", cfg.Webhook.Verifier)
	assert.Equal(t, "USD", cfg.PayPal.Currency)
	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, time.Hour, cfg.PendingTTL)
	assert.Contains(t, cfg.DB.DSN(), "dbname=hotelbook")
}

func TestLoadRejectsMissingWebhookSecret(t *testing.T) {
	t.Setenv("WEBHOOK_VERIFIER", "jwt")
	t.Setenv("WEBHOOK_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "WEBHOOK_SECRET")
}

func TestLoadRejectsUnknownProviders(t *testing.T) {
	t.Setenv("WEBHOOK_VERIFIER", "none")
	t.Setenv("EMAIL_PROVIDER", "pigeon")

	_, err := Load()
	assert.ErrorContains(t, err, "EMAIL_PROVIDER")

	t.Setenv("EMAIL_PROVIDER", "SES")
	t.Setenv("SMS_PROVIDER", "fax")
	_, err = Load()
	assert.ErrorContains(t, err, "SMS_PROVIDER")
}

func TestLoadPayPalVerifierNeedsWebhookID(t *testing.T) {
	t.Setenv("WEBHOOK_VERIFIER", "paypal")

	_, err := Load()
	assert.ErrorContains(t, err, "PAYPAL_WEBHOOK_ID")

	t.Setenv("PAYPAL_WEBHOOK_ID", "WH-123")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "WH-123", cfg.PayPal.WebhookID)
}
