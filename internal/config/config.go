package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SessionBackendCookie   = "cookie"
	SessionBackendPostgres = "postgres"

	RequestStoreMemory = "memory"
	RequestStoreRedis  = "redis"
)

type Config struct {
	Port                string   `env:"PORT" envDefault:"8080"`
	DatabaseURL         string   `env:"DATABASE_URL,required,notEmpty"`
	SessionSecret       string   `env:"SESSION_SECRET,required,notEmpty"`
	SessionBackend      string   `env:"SESSION_BACKEND" envDefault:"cookie"`
	FrontendURL         string   `env:"FRONTEND_URL,required,notEmpty"`
	AllowedRedirectURIs []string `env:"ALLOWED_REDIRECT_URIS"`
	CORSOrigins         []string `env:"CORS_ORIGINS"`
	// TrustedProxies lists the proxy IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty trusts none and client IPs come from the TCP peer.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	JWT    JWTConfig
	OAuth2 OAuth2Config

	RedisURL             string        `env:"REDIS_URL"`
	TokenCleanupInterval time.Duration `env:"TOKEN_CLEANUP_INTERVAL" envDefault:"1h"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"development"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"no-reply@quizhub.local"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET,required,notEmpty"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET,required,notEmpty"`
	Issuer        string        `env:"JWT_ISSUER" envDefault:"quizhub"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
}

type OAuth2Config struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	RequestStore    string        `env:"OAUTH2_REQUEST_STORE" envDefault:"memory"`
	RequestTTL      time.Duration `env:"OAUTH2_REQUEST_TTL" envDefault:"10m"`
	CleanupInterval time.Duration `env:"OAUTH2_CLEANUP_INTERVAL" envDefault:"1m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if len(cfg.AllowedRedirectURIs) == 0 {
		cfg.AllowedRedirectURIs = []string{cfg.FrontendURL}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendCookie, SessionBackendPostgres:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	switch c.OAuth2.RequestStore {
	case RequestStoreMemory:
	case RequestStoreRedis:
		if c.RedisURL == "" {
			return errors.New("OAUTH2_REQUEST_STORE=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown OAUTH2_REQUEST_STORE %q", c.OAuth2.RequestStore)
	}

	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if c.OAuth2.RequestTTL <= 0 || c.OAuth2.CleanupInterval <= 0 {
		return errors.New("OAUTH2_REQUEST_TTL and OAUTH2_CLEANUP_INTERVAL must be positive")
	}

	if c.TokenCleanupInterval <= 0 {
		return errors.New("TOKEN_CLEANUP_INTERVAL must be positive")
	}

	return nil
}

// GoogleEnabled reports whether the Google provider has credentials.
func (c *Config) GoogleEnabled() bool {
	return c.OAuth2.GoogleClientID != "" && c.OAuth2.GoogleClientSecret != ""
}

func (c *Config) GitHubEnabled() bool {
	return c.OAuth2.GitHubClientID != "" && c.OAuth2.GitHubClientSecret != ""
}
