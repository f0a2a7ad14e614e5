package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_SECTIONS", "")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.MaxConcurrentSections, "invalid int falls back to default")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DEFAULT_REFRESH_SECONDS", "15")
	t.Setenv("SKIP_AUTH", "true")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.DefaultRefreshSeconds)
	assert.True(t, cfg.SkipAuth)
	assert.True(t, cfg.IsProduction())
}
