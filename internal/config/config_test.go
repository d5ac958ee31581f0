package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/homesync")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("TOKEN_ENC_KEY", "c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0ISE=")
	t.Setenv("ADMIN_API_KEY_HASH", "$2a$12$fakehashfakehashfakehash")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 2*time.Minute, cfg.ConnectLockTTL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CONNECT_LOCK_TTL", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.ConnectLockTTL)
}

func TestLoadConfig_RequiredFields(t *testing.T) {
	required := []string{"DATABASE_URL", "REDIS_URL", "TOKEN_ENC_KEY", "ADMIN_API_KEY_HASH"}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadConfig_InvalidLockTTL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONNECT_LOCK_TTL", "soon")

	_, err := LoadConfig()
	assert.Error(t, err)
}
