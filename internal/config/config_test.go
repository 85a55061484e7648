package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/trek")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("QUEUE_POLL_INTERVAL", "7s")
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_ENDPOINTS", "https://a.example/hook, https://b.example/hook")
	t.Setenv("WEBHOOK_SECRET", "whsec")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 7*time.Second, cfg.QueuePollInterval)
	require.True(t, cfg.WebhookEnabled)
	require.Equal(t, []string{"https://a.example/hook", "https://b.example/hook"}, cfg.WebhookEndpoints)
	require.Equal(t, "whsec", cfg.WebhookSecret)
	require.Equal(t, 5*time.Second, cfg.WebhookTimeout)
	require.Equal(t, 3000, cfg.DepositRateBps)
	require.Equal(t, "INR", cfg.CurrencyCode)
}

func TestMustLoadPanicsOnMissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AUTH_JWT_SECRET", "secret")

	require.Panics(t, func() { MustLoad() })
}
