// Package config loads the matcher configuration from defaults, an optional file and
// JOBMATCH_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/ranking"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "JOBMATCH"

// Cache backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the complete matcher configuration.
type Config struct {
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Matching MatchingConfig `mapstructure:"matching"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// TaxonomyConfig selects the taxonomy artifact. An empty path uses the embedded one.
type TaxonomyConfig struct {
	Path string `mapstructure:"path"`
}

// ScoringConfig holds the scorer tunables.
type ScoringConfig struct {
	Weights    ranking.Weights    `mapstructure:"weights"`
	Strictness float64            `mapstructure:"strictness"`
	Thresholds ranking.Thresholds `mapstructure:"thresholds"`
	Workers    int                `mapstructure:"workers"` // 0 uses GOMAXPROCS
}

// Ranking returns the scorer configuration.
func (s ScoringConfig) Ranking() ranking.Config {
	return ranking.Config{
		Weights:    s.Weights,
		Strictness: s.Strictness,
		Thresholds: s.Thresholds,
	}
}

// MatchingConfig bounds match requests.
type MatchingConfig struct {
	MaxJobsPerRequest int `mapstructure:"max_jobs_per_request"`
}

// CacheConfig configures the classification cache.
type CacheConfig struct {
	Enabled     bool                `mapstructure:"enabled"`
	Backend     string              `mapstructure:"backend"` // memory, redis or postgres
	TTL         time.Duration       `mapstructure:"ttl"`
	MaxEntries  int                 `mapstructure:"max_entries"`
	RedisURL    string              `mapstructure:"redis_url"`
	DatabaseURL string              `mapstructure:"database_url"`
	Breaker     cache.BreakerConfig `mapstructure:"breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `mapstructure:"idle_timeout"`
	Auth         AuthConfig      `mapstructure:"auth"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds the per-client token bucket settings.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	MatchPerMinute    int           `mapstructure:"match_per_minute"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	Whitelist         []string      `mapstructure:"whitelist"`
	Blacklist         []string      `mapstructure:"blacklist"`
}

// LogConfig selects the log encoder and level.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("taxonomy.path", "")

	weights := ranking.DefaultWeights()
	v.SetDefault("scoring.weights.compatibility", weights.Compatibility)
	v.SetDefault("scoring.weights.experience", weights.Experience)
	v.SetDefault("scoring.weights.skills", weights.Skills)
	v.SetDefault("scoring.weights.location", weights.Location)
	v.SetDefault("scoring.weights.contract", weights.Contract)
	v.SetDefault("scoring.strictness", ranking.DefaultConfig().Strictness)

	thresholds := ranking.DefaultThresholds()
	v.SetDefault("scoring.thresholds.sector_incompatibility", thresholds.SectorIncompatibility)
	v.SetDefault("scoring.thresholds.job_incompatibility", thresholds.JobIncompatibility)
	v.SetDefault("scoring.thresholds.experience_irrelevance", thresholds.ExperienceIrrelevance)
	v.SetDefault("scoring.thresholds.critical_skills", thresholds.CriticalSkills)
	v.SetDefault("scoring.thresholds.max_level_gap", thresholds.MaxLevelGap)
	v.SetDefault("scoring.workers", 0)

	v.SetDefault("matching.max_jobs_per_request", 50)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.database_url", "")

	breaker := cache.DefaultBreakerConfig()
	v.SetDefault("cache.breaker.max_requests", breaker.MaxRequests)
	v.SetDefault("cache.breaker.interval", breaker.Interval)
	v.SetDefault("cache.breaker.timeout", breaker.Timeout)
	v.SetDefault("cache.breaker.consecutive_failures", breaker.ConsecutiveFailures)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.auth.jwt_secret", "")
	v.SetDefault("server.auth.issuer", "job-matcher")
	v.SetDefault("server.auth.expiration_hours", 24)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_minute", 600)
	v.SetDefault("server.rate_limit.burst", 60)
	v.SetDefault("server.rate_limit.match_per_minute", 60)
	v.SetDefault("server.rate_limit.cleanup_interval", 5*time.Minute)
	v.SetDefault("server.rate_limit.whitelist", []string{})
	v.SetDefault("server.rate_limit.blacklist", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the configuration. Values come, from lowest to highest priority, from the
// defaults, the file at path (YAML, JSON or TOML; skipped when path is empty) and
// JOBMATCH_* environment variables, where JOBMATCH_CACHE_REDIS_URL sets cache.redis_url.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	return &cfg
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := c.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Scoring.Strictness < 0 || c.Scoring.Strictness > 1 {
		return fmt.Errorf("config error: 'scoring.strictness' must be within [0,1]")
	}
	if err := c.Scoring.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Scoring.Workers < 0 {
		return fmt.Errorf("config error: 'scoring.workers' must be non-negative")
	}
	if c.Matching.MaxJobsPerRequest < 1 {
		return fmt.Errorf("config error: 'matching.max_jobs_per_request' must be at least 1")
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case BackendMemory:
		case BackendRedis:
			if c.Cache.RedisURL == "" {
				return fmt.Errorf("config error: 'cache.redis_url' is required for the redis backend")
			}
		case BackendPostgres:
			if c.Cache.DatabaseURL == "" {
				return fmt.Errorf("config error: 'cache.database_url' is required for the postgres backend")
			}
		default:
			return fmt.Errorf("config error: unknown cache backend %q", c.Cache.Backend)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("config error: 'cache.ttl' must be positive")
		}
		if c.Cache.MaxEntries < 0 {
			return fmt.Errorf("config error: 'cache.max_entries' must be non-negative")
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be within [0,65535]")
	}
	if err := c.Server.Auth.normalize(); err != nil {
		return err
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerMinute < 1 || c.Server.RateLimit.MatchPerMinute < 1) {
		return fmt.Errorf("config error: rate limits must be at least 1 request per minute")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config error: 'log.format' must be console or json (got %q)", c.Log.Format)
	}
	return nil
}
