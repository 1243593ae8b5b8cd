package ratelimit

import (
	"time"

	"github.com/jonathan/job-matcher/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromConfig builds a limiter configuration from the server rate limit settings.
func FromConfig(cfg config.RateLimitConfig) *Config {
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    cfg.RequestsPerMinute,
		DefaultWindow:   time.Minute,
		DefaultBurst:    cfg.Burst,
		CleanupInterval: cfg.CleanupInterval,
		Whitelist:       toSet(cfg.Whitelist),
		Blacklist:       toSet(cfg.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(cfg.MatchPerMinute),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Matching scores up to
// max_jobs_per_request jobs per call and gets the strictest limit.
func DefaultEndpointConfigs(matchPerMinute int) []EndpointConfig {
	burst := max(1, matchPerMinute/6)
	return []EndpointConfig{
		{Path: "/v1/match", Method: "POST", Limit: matchPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/v1/match/stream", Method: "POST", Limit: matchPerMinute, Window: time.Minute, Burst: burst},
	}
}

// toSet turns a list of client ids into a lookup set.
func toSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
