// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"time"
)

// Server captures process-level configuration for the onboarding service.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	// DraftDBPath locates the local SQLite draft store. Empty selects the
	// in-memory store (drafts lost on restart).
	DraftDBPath string
	// RedisURL enables the remote draft mirror when set.
	RedisURL string
	// DatabaseURL enables the Postgres document store when set; otherwise
	// documents land in the in-memory store.
	DatabaseURL string

	AutoSaveDebounce time.Duration
}

// FromEnv reads configuration with development defaults.
func FromEnv() Server {
	addr := os.Getenv("KYC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "kyconboard"
	}

	debounce := 2 * time.Second
	if raw := os.Getenv("KYC_AUTOSAVE_DEBOUNCE"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			debounce = parsed
		}
	}

	return Server{
		Addr:             addr,
		JWTSigningKey:    jwtSigningKey,
		JWTIssuer:        issuer,
		DraftDBPath:      os.Getenv("KYC_DRAFT_DB"),
		RedisURL:         os.Getenv("KYC_REDIS_URL"),
		DatabaseURL:      os.Getenv("KYC_DATABASE_URL"),
		AutoSaveDebounce: debounce,
	}
}
