package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("LEDGER_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, 500*time.Millisecond, cfg.Auth.StoreTimeout())
	assert.Equal(t, "/api/auth/refresh-token", cfg.Cookie.RefreshPath)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, LedgerDriverPostgres, cfg.Ledger.Driver)
}

func TestLoadProductionRequiresRealSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_ACCESS_TOKEN_SECRET", "")
	t.Setenv("AUTH_REFRESH_TOKEN_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTH_ACCESS_TOKEN_SECRET", "prod-access")
	t.Setenv("AUTH_REFRESH_TOKEN_SECRET", "prod-refresh")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Cookie.Secure)
}

func TestValidateRejectsSharedSecret(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_SECRET", "same")
	t.Setenv("AUTH_REFRESH_TOKEN_SECRET", "same")

	_, err := Load()
	assert.ErrorContains(t, err, "must differ")
}

func TestValidateRejectsUnknownLedger(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorContains(t, err, "LEDGER_DRIVER")
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvAsList("CORS_ALLOW_ORIGINS", nil))
}
