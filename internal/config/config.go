// Package config loads the server settings from the environment.
//
// A .env file in the working directory is read first when present, so local
// development needs no exported variables. Real environment variables win over
// the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// MinSecretLength is the shortest SESSION_SECRET accepted.
const MinSecretLength = 16

// Config holds every setting of the blog server.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/blog.db"`

	SessionSecret          string        `env:"SESSION_SECRET,required"`
	SessionCookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"connect.sid"`
	SessionTTL             time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionSecureCookie    bool          `env:"SESSION_SECURE_COOKIE" envDefault:"false"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`

	BcryptCost       int  `env:"BCRYPT_COST" envDefault:"10"`
	PageSize         int  `env:"PAGE_SIZE" envDefault:"10"`
	EnforceOwnership bool `env:"ENFORCE_OWNERSHIP" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// TemplateDir overrides the embedded templates when set.
	TemplateDir    string `env:"TEMPLATE_DIR"`
	RenderMarkdown bool   `env:"RENDER_MARKDOWN" envDefault:"true"`
}

// StoreConfig is the subset of settings the admin CLI needs. It has no
// required fields, so blogctl runs without a session secret.
type StoreConfig struct {
	DBPath     string `env:"DB_PATH" envDefault:"data/blog.db"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
	PageSize   int    `env:"PAGE_SIZE" envDefault:"10"`
}

// LoadStore reads .env (if any) and the process environment into a StoreConfig.
func LoadStore() (*StoreConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	var cfg StoreConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("config: loading .env: %w", err)
		}
	}
	return nil
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts and validates it.
// Tests pass opts.Environment to avoid touching the process environment.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg, opts); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if len(c.SessionSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionCleanupInterval <= 0 {
		errs = append(errs, errors.New("SESSION_CLEANUP_INTERVAL must be positive"))
	}
	if c.PageSize < 1 {
		errs = append(errs, errors.New("PAGE_SIZE must be at least 1"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address for net/http.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
