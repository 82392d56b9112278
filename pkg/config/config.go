// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultHost is used when a tenant configuration does not name a host.
const DefaultHost = "https://captivateprime.adobe.com"

type Config struct {
	Env       string
	HTTPAddr  string // widget-service
	AdminAddr string // admin-api-service

	// Captivate Prime host used when the resolved tenant has none
	DefaultHostName string

	// Outbound calls and caching
	CatalogTTL        time.Duration
	HTTPTimeout       time.Duration
	TokenExpiryBuffer time.Duration

	// Content tree
	MaxInheritDepth int
	ContentSeedFile string

	// OIDC / JWT for end-user identity
	Issuer   string
	Audience string
	JWKSURL  string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("CPWIDGET_ENV", "dev"),
		HTTPAddr:          env("CPWIDGET_HTTP_ADDR", ":8080"),
		AdminAddr:         env("CPWIDGET_ADMIN_ADDR", ":8082"),
		DefaultHostName:   env("CPWIDGET_DEFAULT_HOST", DefaultHost),
		CatalogTTL:        envDur("CPWIDGET_CATALOG_TTL_SEC", 86400) * time.Second,
		HTTPTimeout:       envDur("CPWIDGET_HTTP_TIMEOUT_SEC", 10) * time.Second,
		TokenExpiryBuffer: envDur("CPWIDGET_TOKEN_BUFFER_SEC", 3600) * time.Second,
		MaxInheritDepth:   envInt("CPWIDGET_MAX_INHERIT_DEPTH", 64),
		ContentSeedFile:   env("CPWIDGET_CONTENT_SEED", ""),
		Issuer:            env("OIDC_ISSUER", ""),
		Audience:          env("OIDC_AUDIENCE", "cpwidget"),
		JWKSURL:           env("JWKS_URL", ""),
		RedisURL:          env("REDIS_URL", ""),
		DatabaseURL:       env("DATABASE_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, using in-memory content tree for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
