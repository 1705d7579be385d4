// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Order backends.
const (
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Payment providers.
const (
	ProviderStripe   = "stripe"
	ProviderXquisito = "xquisito"
)

var (
	ErrStripeKeyRequired = errors.New("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
	ErrBaseURLRequired   = errors.New("XQUISITO_API_URL is required for the remote backend and hosted processor")
	ErrJWTSecretRequired = errors.New("JWT_SECRET is required")
	ErrUnknownBackend    = errors.New("unknown ORDER_BACKEND")
	ErrUnknownProvider   = errors.New("unknown PAYMENT_PROVIDER")
	ErrInvalidPort       = errors.New("PORT must be between 1 and 65535")
)

// Config is the whole process configuration.
type Config struct {
	Port     int    `env:"PORT,default=8080"`
	DBPath   string `env:"DB_PATH,default=./data/pickandgo.db"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	OrderBackend string `env:"ORDER_BACKEND,default=sqlite"`

	API struct {
		BaseURL    string `env:"XQUISITO_API_URL"`
		ServiceKey string `env:"XQUISITO_SERVICE_KEY"`
		Timeout    string `env:"XQUISITO_API_TIMEOUT,default=10s"`
	}

	Auth struct {
		JWTSecret string `env:"JWT_SECRET"`
		Issuer    string `env:"JWT_ISSUER"`
	}

	Payments struct {
		Provider      string `env:"PAYMENT_PROVIDER,default=xquisito"`
		StripeKey     string `env:"STRIPE_SECRET_KEY"`
		StripeAccount string `env:"STRIPE_ACCOUNT_ID"`
	}

	SessionSlotTTL string `env:"SESSION_SLOT_TTL,default=24h"`
	PurgeInterval  string `env:"SESSION_PURGE_INTERVAL,default=10m"`

	// Parsed forms of the duration strings above.
	APITimeout       time.Duration
	SessionTTL       time.Duration
	SessionPurgeEach time.Duration
}

// Load reads an optional .env file, then decodes the process environment.
// Variables already set in the environment win over the file.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
	}
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return FromEnvSet(es)
}

// FromEnvSet decodes es, normalizes it and validates the result. Unset
// variables take the defaults declared on the struct tags.
func FromEnvSet(es env.EnvSet) (*Config, error) {
	set := make(env.EnvSet, len(es))
	for k, v := range es {
		// An empty variable counts as unset so the tag default applies.
		if v != "" {
			set[k] = v
		}
	}

	cfg := &Config{}
	if err := env.Unmarshal(set, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	cfg.normalize()

	var err error
	if cfg.APITimeout, err = parseDuration("XQUISITO_API_TIMEOUT", cfg.API.Timeout); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_SLOT_TTL", cfg.SessionSlotTTL); err != nil {
		return nil, err
	}
	if cfg.SessionPurgeEach, err = parseDuration("SESSION_PURGE_INTERVAL", cfg.PurgeInterval); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.OrderBackend = strings.ToLower(strings.TrimSpace(c.OrderBackend))
	c.Payments.Provider = strings.ToLower(strings.TrimSpace(c.Payments.Provider))
}

// Validate rejects inconsistent combinations.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Auth.JWTSecret == "" {
		return ErrJWTSecretRequired
	}

	switch c.OrderBackend {
	case BackendSQLite:
	case BackendRemote:
		if c.API.BaseURL == "" {
			return ErrBaseURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.OrderBackend)
	}

	switch c.Payments.Provider {
	case ProviderStripe:
		if c.Payments.StripeKey == "" {
			return ErrStripeKeyRequired
		}
	case ProviderXquisito:
		if c.API.BaseURL == "" {
			return ErrBaseURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Payments.Provider)
	}
	return nil
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return d, nil
}
