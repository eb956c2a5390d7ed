package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/expedition-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.True(t, cfg.ScarcityEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRPC_PORT", "9000")
	t.Setenv("JOB_TIMEOUT", "2m")
	t.Setenv("SCARCITY_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.GRPCPort)
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout)
	assert.False(t, cfg.ScarcityEnabled)
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Setenv("GRPC_PORT", "99999")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLockTTLExceedsJobTimeout(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Greater(t, cfg.LockTTL(), cfg.JobTimeout,
		"lock TTL must leave a margin above the job timeout")
}
