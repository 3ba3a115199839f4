package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("FULFILLMENT_DB_USER", "app")
	t.Setenv("FULFILLMENT_DB_NAME", "fulfillment")
	t.Setenv("FULFILLMENT_STRIPE_API_KEY", "sk_test_123")
	t.Setenv("FULFILLMENT_GOOGLE_ROUTES_API_KEY", "routes-key")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "3.99", cfg.BaseFee)
	assert.Equal(t, 5, cfg.RetryMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.RetryInitialInterval)
	assert.Equal(t, "0 * * * * *", cfg.ReconcileSchedule)
	assert.Equal(t, 30*time.Second, cfg.SideEffectLockTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
}

func TestLoadConfig_EnvFile(t *testing.T) {
	setRequired(t)
	t.Setenv("FULFILLMENT_HTTP_PORT", "9000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FULFILLMENT_HTTP_PORT=7000\nFULFILLMENT_RECONCILE_BATCH=10\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FULFILLMENT_RECONCILE_BATCH") })

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// the process environment wins over the file
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, 10, cfg.ReconcileBatch)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("FULFILLMENT_DB_USER", "app")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadConfig_RejectsEmptyBatch(t *testing.T) {
	setRequired(t)
	t.Setenv("FULFILLMENT_RECONCILE_BATCH", "0")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadConfig_RetryAttempts(t *testing.T) {
	tests := []struct {
		attempts string
		wantErr  bool
	}{
		{"0", true},
		{"1", true},
		{"2", false},
	}

	for _, tt := range tests {
		t.Run(tt.attempts, func(t *testing.T) {
			setRequired(t)
			t.Setenv("FULFILLMENT_RETRY_MAX_ATTEMPTS", tt.attempts)

			cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			if tt.wantErr {
				require.ErrorContains(t, err, "FULFILLMENT_RETRY_MAX_ATTEMPTS")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, cfg.RetryMaxAttempts)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "app",
		DBPassword: "p@ss",
		DBName:     "fulfillment",
		DBSslMode:  "disable",
	}

	assert.Equal(t, "postgres://app:p%40ss@db:5432/fulfillment?sslmode=disable", cfg.DSN())
}
