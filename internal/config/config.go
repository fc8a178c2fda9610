// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults applied by MergeWithDefaults(Defaults()).
const (
	DefaultPort               = 8080
	DefaultDirectoryRPS       = 2.0
	DefaultMaxPeoplePerQuery  = 50
	DefaultEnrichConcurrency  = 5
	DefaultCompareFanOut      = 2
	DefaultTopK               = 10
	DefaultToleranceDays      = 90
	DefaultCacheTTLHours      = 168
	DefaultCompareIndustry    = "Private Equity"
	DefaultJWTExpirationHours = 24
)

// Config represents the service configuration, loaded from a JSON file and/or the environment.
// All fields are optional; missing values use defaults.
type Config struct {
	// Stores and upstreams
	DatabaseURL     string  `json:"database_url,omitempty"`      // PostgreSQL connection URL; empty uses the in-memory store
	DirectoryURL    string  `json:"directory_url,omitempty"`     // People directory API base URL
	DirectoryAPIKey string  `json:"directory_api_key,omitempty"` // People directory bearer token
	DirectoryRPS    float64 `json:"directory_rps,omitempty"`     // Client-side request rate limit
	NatsURL         string  `json:"nats_url,omitempty"`          // Empty disables events
	RulesPath       string  `json:"rules_path,omitempty"`        // Directory with industries/lexicon overrides

	// HTTP surface
	Port               int    `json:"port,omitempty"`
	JWTSecret          string `json:"jwt_secret,omitempty"` // Empty disables auth
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty"`

	// Per-query limits
	MaxPeoplePerQuery      int    `json:"max_people_per_query,omitempty"`
	EnrichConcurrency      int    `json:"enrich_concurrency,omitempty"`
	CompareFanOut          int    `json:"compare_fan_out,omitempty"`
	TopK                   int    `json:"top_k,omitempty"`
	ToleranceDays          int    `json:"tolerance_days,omitempty"`
	CacheTTLHours          int    `json:"cache_ttl_hours,omitempty"`
	DefaultCompareIndustry string `json:"default_compare_industry,omitempty"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                   DefaultPort,
		DirectoryRPS:           DefaultDirectoryRPS,
		JWTExpirationHours:     DefaultJWTExpirationHours,
		MaxPeoplePerQuery:      DefaultMaxPeoplePerQuery,
		EnrichConcurrency:      DefaultEnrichConcurrency,
		CompareFanOut:          DefaultCompareFanOut,
		TopK:                   DefaultTopK,
		ToleranceDays:          DefaultToleranceDays,
		CacheTTLHours:          DefaultCacheTTLHours,
		DefaultCompareIndustry: DefaultCompareIndustry,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// envSetting binds one environment variable to a Config field.
type envSetting struct {
	name  string
	apply func(c *Config, value string) error
}

var envSettings = []envSetting{
	{"DATABASE_URL", setString(func(c *Config) *string { return &c.DatabaseURL })},
	{"DIRECTORY_URL", setString(func(c *Config) *string { return &c.DirectoryURL })},
	{"DIRECTORY_API_KEY", setString(func(c *Config) *string { return &c.DirectoryAPIKey })},
	{"DIRECTORY_RPS", func(c *Config, v string) error {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.DirectoryRPS = rps
		return nil
	}},
	{"NATS_URL", setString(func(c *Config) *string { return &c.NatsURL })},
	{"RULES_PATH", setString(func(c *Config) *string { return &c.RulesPath })},
	{"PORT", setInt(func(c *Config) *int { return &c.Port })},
	{"JWT_SECRET", setString(func(c *Config) *string { return &c.JWTSecret })},
	{"JWT_EXPIRATION_HOURS", setInt(func(c *Config) *int { return &c.JWTExpirationHours })},
	{"MAX_PEOPLE_PER_QUERY", setInt(func(c *Config) *int { return &c.MaxPeoplePerQuery })},
	{"ENRICH_CONCURRENCY", setInt(func(c *Config) *int { return &c.EnrichConcurrency })},
	{"COMPARE_FAN_OUT", setInt(func(c *Config) *int { return &c.CompareFanOut })},
	{"TOP_K", setInt(func(c *Config) *int { return &c.TopK })},
	{"TRANSITION_TOLERANCE_DAYS", setInt(func(c *Config) *int { return &c.ToleranceDays })},
	{"CACHE_TTL_HOURS", setInt(func(c *Config) *int { return &c.CacheTTLHours })},
	{"DEFAULT_COMPARE_INDUSTRY", setString(func(c *Config) *string { return &c.DefaultCompareIndustry })},
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

// FromEnv reads configuration from environment variables. Unset variables leave fields at zero.
func FromEnv() (*Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	for _, s := range envSettings {
		v, ok := lookup(s.name)
		if !ok || v == "" {
			continue
		}
		if err := s.apply(&cfg, v); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", s.name, err)
		}
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	// Validate numeric ranges
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.DirectoryRPS < 0 {
		return fmt.Errorf("config error: 'directory_rps' must be non-negative")
	}
	if c.MaxPeoplePerQuery < 0 {
		return fmt.Errorf("config error: 'max_people_per_query' must be non-negative")
	}
	if c.EnrichConcurrency < 0 {
		return fmt.Errorf("config error: 'enrich_concurrency' must be non-negative")
	}
	if c.CompareFanOut < 0 {
		return fmt.Errorf("config error: 'compare_fan_out' must be non-negative")
	}
	if c.TopK < 0 {
		return fmt.Errorf("config error: 'top_k' must be non-negative")
	}
	if c.ToleranceDays < 0 {
		return fmt.Errorf("config error: 'tolerance_days' must be non-negative")
	}
	if c.CacheTTLHours < 0 {
		return fmt.Errorf("config error: 'cache_ttl_hours' must be non-negative")
	}
	if c.JWTExpirationHours < 0 {
		return fmt.Errorf("config error: 'jwt_expiration_hours' must be non-negative")
	}

	// Validate rules directory exists (if specified)
	if c.RulesPath != "" {
		info, err := os.Stat(c.RulesPath)
		if os.IsNotExist(err) {
			return fmt.Errorf("config error: rules path not found: %s", c.RulesPath)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: rules path is not a directory: %s", c.RulesPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Layering a file over the environment over Defaults() is done by chaining calls.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.DirectoryURL == "" {
		result.DirectoryURL = defaults.DirectoryURL
	}
	if result.DirectoryAPIKey == "" {
		result.DirectoryAPIKey = defaults.DirectoryAPIKey
	}
	if result.NatsURL == "" {
		result.NatsURL = defaults.NatsURL
	}
	if result.RulesPath == "" {
		result.RulesPath = defaults.RulesPath
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	if result.DefaultCompareIndustry == "" {
		result.DefaultCompareIndustry = defaults.DefaultCompareIndustry
	}

	// Numeric fields: use default if zero
	if result.DirectoryRPS == 0 {
		result.DirectoryRPS = defaults.DirectoryRPS
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.JWTExpirationHours == 0 {
		result.JWTExpirationHours = defaults.JWTExpirationHours
	}
	if result.MaxPeoplePerQuery == 0 {
		result.MaxPeoplePerQuery = defaults.MaxPeoplePerQuery
	}
	if result.EnrichConcurrency == 0 {
		result.EnrichConcurrency = defaults.EnrichConcurrency
	}
	if result.CompareFanOut == 0 {
		result.CompareFanOut = defaults.CompareFanOut
	}
	if result.TopK == 0 {
		result.TopK = defaults.TopK
	}
	if result.ToleranceDays == 0 {
		result.ToleranceDays = defaults.ToleranceDays
	}
	if result.CacheTTLHours == 0 {
		result.CacheTTLHours = defaults.CacheTTLHours
	}

	return result
}

// Tolerance returns the transition tolerance window.
func (c *Config) Tolerance() time.Duration {
	return time.Duration(c.ToleranceDays) * 24 * time.Hour
}

// CacheTTL returns how long cached directory records stay fresh.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load layers the optional JSON file at path over the environment over Defaults() and validates the result.
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	merged := env.MergeWithDefaults(Defaults())

	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = file.MergeWithDefaults(merged)
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
