package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("BCRYPT_COST", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "secret", cfg.SecretKey)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "staging")
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 192.168.0.0/16")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "s3cr3t", cfg.SecretKey)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.RateLimitWhitelist)
}

func TestLoadBadBcryptCostFallsBack(t *testing.T) {
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("ENV", "")
	t.Setenv("SECRET_KEY", "")

	cfg := Load()
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DATABASE_URL", "")

	assert.Panics(t, func() { Load() })

	t.Setenv("SECRET_KEY", "s3cr3t")
	assert.Panics(t, func() { Load() })

	t.Setenv("DATABASE_URL", "postgres://localhost/messagely")
	assert.NotPanics(t, func() { Load() })
}
