package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "RATE_LIMIT_WINDOW", "STRIPE_CURRENCY"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "gbp", cfg.Stripe.Currency)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_REQUESTS", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{DSN: "dsn"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")

	cfg.JWT.Secret = "s"
	cfg.Stripe.SecretKey = "sk_test"
	cfg.Stripe.WebhookSecret = "whsec"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Env = "production"
	assert.Error(t, cfg.Validate())
}
