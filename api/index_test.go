package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test; envconfig treats a set but empty variable as a value
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	for _, key := range []string{"PORT", "ENVIRONMENT", "DATABASE_POSTGRES_URL", "DATABASE_AUTO_MIGRATE", "RABBITMQ_EXCHANGE", "RATING_CACHE_TTL", "SLACK_TIMEOUT_SECONDS"} {
		unsetEnv(t, key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "fulfillment.events", cfg.RabbitExchange)
	assert.Equal(t, time.Minute, cfg.RatingCacheTTL)
	assert.Equal(t, 5, cfg.SlackTimeoutSeconds)
	assert.False(t, cfg.DatabaseAutoMigrate)
}

func TestLoadConfigRequiresDatabaseInProduction(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_POSTGRES_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestNewOnMemoryStore(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, &Config{
		Port:           "0",
		Environment:    "development",
		JWTSecret:      "secret",
		RabbitExchange: "fulfillment.events",
		RatingCacheTTL: time.Minute,
		ServiceName:    "cleanbuddy-fulfillment",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(ctx) })

	require.NotNil(t, a.Fixture)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := a.Auth.GenerateAccessToken(a.Fixture.Customer.ID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/bookings/missing/service-requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
