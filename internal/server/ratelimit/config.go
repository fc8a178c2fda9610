package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !envOr("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envOr("RATE_LIMIT_DEFAULT_LIMIT", 600, strconv.Atoi),
		DefaultWindow:   envOr("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envOr("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Answering fans out to the people directory
		{Path: "/answer", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Store reads
		{Path: "/transitions", Method: "GET", Limit: 300, Window: time.Minute, Burst: 50},

		// Health check is unlimited
		{Path: "/health", Method: "GET", Limit: 0},
	}
}

// envOr parses the environment variable key, falling back to def when unset or unparsable.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		return def
	}
	return parsed
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	ips := strings.Split(list, ",")
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}

