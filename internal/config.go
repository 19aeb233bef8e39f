package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Cache   CacheConfig       `yaml:"cache"`
	Usage   UsageConfig       `yaml:"usage"`
	Matcher MatcherConfig     `yaml:"matcher"`
	Journal JournalConfig     `yaml:"journal"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Usage.Validate(); err != nil {
		return err
	}
	if err := c.Matcher.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CacheConfig holds the app-index cache settings.
type CacheConfig struct {
	Path        string `yaml:"path"`
	ValidHours  int    `yaml:"valid_hours"`
	Incremental bool   `yaml:"incremental"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ValidHours, validation.Min(0)),
	)
}

// UsageConfig holds launch-tracking settings.
type UsageConfig struct {
	Path     string `yaml:"path"`
	Tracking bool   `yaml:"tracking"`
	Priority bool   `yaml:"priority"`
}

// Validate validates the usage configuration.
func (c *UsageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MatcherConfig holds query-matching knobs, including extra alias table
// entries merged over the built-in set.
type MatcherConfig struct {
	AliasExpansion bool                `yaml:"alias_expansion"`
	FuzzyMatch     bool                `yaml:"fuzzy_match"`
	MaxCandidates  int                 `yaml:"max_candidates"`
	FuzzyThreshold float64             `yaml:"fuzzy_threshold"`
	Aliases        map[string][]string `yaml:"aliases"`
}

// Validate validates the matcher configuration.
func (c *MatcherConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxCandidates, validation.Required, validation.Min(1)),
		validation.Field(&c.FuzzyThreshold, validation.Min(0.0), validation.Max(1.0)),
	)
}

// JournalConfig holds the SQLite launch-journal location. An empty path
// disables the journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Cache: CacheConfig{
			Path:        "~/.mcp/apps_cache.json",
			ValidHours:  24,
			Incremental: true,
		},
		Usage: UsageConfig{
			Path:     "~/.mcp/app_usage.json",
			Tracking: true,
			Priority: true,
		},
		Matcher: MatcherConfig{
			AliasExpansion: true,
			FuzzyMatch:     true,
			MaxCandidates:  3,
			FuzzyThreshold: 0.7,
		},
		Journal: JournalConfig{
			Path: "~/.mcp/raido_journal.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
