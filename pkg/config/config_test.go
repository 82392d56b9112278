package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CPWIDGET_DEFAULT_HOST", "")
	t.Setenv("CPWIDGET_CATALOG_TTL_SEC", "")
	cfg := Load()
	assert.Equal(t, DefaultHost, cfg.DefaultHostName)
	assert.Equal(t, 24*time.Hour, cfg.CatalogTTL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.TokenExpiryBuffer)
	assert.Equal(t, 64, cfg.MaxInheritDepth)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CPWIDGET_DEFAULT_HOST", "https://learningmanager.adobe.com")
	t.Setenv("CPWIDGET_HTTP_TIMEOUT_SEC", "3")
	t.Setenv("CPWIDGET_MAX_INHERIT_DEPTH", "bogus")
	cfg := Load()
	assert.Equal(t, "https://learningmanager.adobe.com", cfg.DefaultHostName)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 64, cfg.MaxInheritDepth)
}
