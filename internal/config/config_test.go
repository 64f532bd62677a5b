package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, time.Second, cfg.CacheTTL)
	assert.Equal(t, uint(3), cfg.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.False(t, cfg.SearchDedupe)
	assert.False(t, cfg.IsGatewayMode())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COLLABORATOR_TIMEOUT", "250ms")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("SEARCH_DEDUPE", "true")
	t.Setenv("AUTH_MODE", "gateway")

	cfg := Load()

	assert.Equal(t, 250*time.Millisecond, cfg.CollaboratorTimeout)
	assert.Equal(t, uint(5), cfg.RetryAttempts)
	assert.True(t, cfg.SearchDedupe)
	assert.True(t, cfg.IsGatewayMode())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("RETRY_ATTEMPTS", "-2")

	cfg := Load()

	assert.Equal(t, time.Second, cfg.CacheTTL)
	assert.Equal(t, uint(3), cfg.RetryAttempts)
}
