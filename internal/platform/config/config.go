package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the mailer needs from its environment. The
// portal delivers the rest (sender identities, host names) at init time.
type Config struct {
	Addr       string
	APIBaseURL string
	MyURL      string
	Env        string
	APITimeout time.Duration

	SMTP SMTP
}

// SMTP holds the outbound mail transport settings.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Development reports whether error details may be leaked to HTTP callers.
func (c Config) Development() bool {
	return c.Env == "development"
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:       envOr("MAILER_ADDR", ":3003"),
		APIBaseURL: envOr("MAILER_API_URL", "http://portal-api:3001/"),
		MyURL:      envOr("MAILER_URL", "http://portal-mailer:3003/"),
		Env:        envOr("MAILER_ENV", "production"),
		APITimeout: 10 * time.Second,
		SMTP: SMTP{
			Host:     envOr("SMTP_HOST", "localhost"),
			Port:     25,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
	}

	if t := os.Getenv("MAILER_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.APITimeout = d
		}
	}
	if p := os.Getenv("SMTP_PORT"); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			cfg.SMTP.Port = port
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
