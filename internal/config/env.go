package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Passwords are never read from the environment; use PromptForPassword.
type Config struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	StoreBackend       string        `envconfig:"STORE_BACKEND" default:"sqlite"`
	StorePath          string        `envconfig:"STORE_PATH" default:"seedvault.db"`
	RedisAddr          string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword      string        `envconfig:"REDIS_PASSWORD"`
	VaultIterations    int           `envconfig:"VAULT_ITERATIONS" default:"210000"`
	DerivationScheme   string        `envconfig:"DERIVATION_SCHEME" default:"hkdf"`
	MaxFailedAttempts  int           `envconfig:"MAX_FAILED_ATTEMPTS" default:"5"`
	LockoutDuration    time.Duration `envconfig:"LOCKOUT_DURATION" default:"30m"`
	SessionTTL         time.Duration `envconfig:"SESSION_TTL" default:"15m"`
	SessionMaxLifetime time.Duration `envconfig:"SESSION_MAX_LIFETIME" default:"12h"`
	PayCooldown        int           `envconfig:"PAY_COOLDOWN_MINUTES" default:"4"`
	LedgerURL          string        `envconfig:"LEDGER_URL" default:"http://localhost:9090"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads an optional .env file and then the environment.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads configuration without touching the global instance.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if c.MaxFailedAttempts < 1 {
		return nil, fmt.Errorf("MAX_FAILED_ATTEMPTS must be at least 1")
	}
	if c.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.PayCooldown < 0 {
		return nil, fmt.Errorf("PAY_COOLDOWN_MINUTES cannot be negative")
	}
	return c, nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// PayCooldownDuration returns the pay cooldown as a duration.
func (c *Config) PayCooldownDuration() time.Duration {
	return time.Duration(c.PayCooldown) * time.Minute
}

// PromptForPassword reads a password from the terminal without echo.
// The caller must clear the returned slice after use.
func PromptForPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}

// PromptForNewPassword asks twice and fails when the entries differ.
func PromptForNewPassword() ([]byte, error) {
	first, err := PromptForPassword("New password: ")
	if err != nil {
		return nil, err
	}
	second, err := PromptForPassword("Repeat password: ")
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if string(first) != string(second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
