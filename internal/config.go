package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Backend BackendConfig     `yaml:"backend"`
	Session SessionConfig     `yaml:"session"`
	Stub    StubConfig        `yaml:"stub"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	return c.Stub.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// BackendConfig holds the remote notes service location.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
	)
}

// SessionConfig holds session persistence configuration.
//
// TokenPath overrides where the session token file lives; when empty the
// per-user default location is used.
type SessionConfig struct {
	TokenPath string `yaml:"token_path"`
}

// StubConfig configures the built-in development backend started by the
// serve command.
type StubConfig struct {
	Port       int    `yaml:"port"`
	SQLitePath string `yaml:"sqlite_path"`
	SeedPath   string `yaml:"seed_path"`
	JWTSecret  string `yaml:"jwt_secret"`
}

// Address returns the stub server listen address.
func (c *StubConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the stub configuration.
func (c *StubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SQLitePath, validation.Required),
		validation.Field(&c.JWTSecret, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values. The
// default backend is the built-in stub on its default port.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:8080/api",
		},
		Stub: StubConfig{
			Port:       8080,
			SQLitePath: "./raido.db",
			JWTSecret:  "dev-secret-change-me",
		},
	}
}
