package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", " s3cret ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 90*time.Second, cfg.Ledger.SubmitTimeout)
	assert.Equal(t, BackendNone, cfg.Storage.Backend)
	assert.Equal(t, BackendNone, cfg.MQ.Backend)
	assert.True(t, cfg.MQ.RabbitMQ.ExchangeDurable)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigReportsEveryParseError(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	t.Setenv("MINIO_USE_SSL", "sometimes")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL")
	assert.Contains(t, err.Error(), "MINIO_USE_SSL")
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_BACKEND", "MINIO")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendMinio, cfg.Storage.Backend)
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET is required")

	cfg.Auth.JWTSecret = "x"
	cfg.MQ.Backend = "kafka"
	assert.EqualError(t, cfg.Validate(), `unknown MQ_BACKEND "kafka"`)
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("REQUEST_TIMEOUT", "0s")
	t.Setenv("ACCESS_TOKEN_TTL", "0s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.EqualError(t, cfg.Validate(), "REQUEST_TIMEOUT must be positive, got 0s")

	cfg.RequestTimeout = time.Minute
	assert.EqualError(t, cfg.Validate(), "ACCESS_TOKEN_TTL must be positive, got 0s")

	cfg.Auth.TokenTTL = time.Minute
	cfg.Ledger.SubmitTimeout = -time.Second
	assert.EqualError(t, cfg.Validate(), "XRPL_SUBMIT_TIMEOUT must be positive, got -1s")

	cfg.Ledger.SubmitTimeout = time.Minute
	cfg.Ledger.PollInterval = 0
	assert.EqualError(t, cfg.Validate(), "XRPL_POLL_INTERVAL must be positive, got 0s")

	cfg.Ledger.PollInterval = time.Second
	assert.NoError(t, cfg.Validate())
}
