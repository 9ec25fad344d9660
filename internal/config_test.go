package internal

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CHECKOUT_SETTLE_DELAY", "")
	t.Setenv("CART_IDLE_TIMEOUT", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ASSISTANT_MODEL", "")
	t.Setenv("ENV", "dev")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 3*time.Second, cfg.Checkout.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Checkout.PersistTimeout)
	assert.Equal(t, "admin@shop.com", cfg.Admin.Email)
	assert.Equal(t, 2*time.Hour, cfg.Session.CartIdleTimeout)
	assert.Empty(t, cfg.Assistant.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.Assistant.Model)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("CHECKOUT_SETTLE_DELAY", "250ms")
	t.Setenv("CHECKOUT_PERSIST_RETRIES", "5")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("LOG_LEVEL", "verbose")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.Checkout.SettleDelay)
	assert.Equal(t, uint64(5), cfg.Checkout.PersistRetries)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewConfig_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestNewConfig_FirestoreNeedsProject(t *testing.T) {
	t.Setenv("STORE_BACKEND", "firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestNewLogger_JSONInProd(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "info")
	logger.Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"service":"campusshop"`)
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"", false, true},
		{"warn", false, false},
		{"verbose", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "dev", tt.level)
			ctx := context.Background()

			assert.Equal(t, tt.wantDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.wantInfo, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}
