package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/config"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute, DefaultBurst: 5})

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("10.0.0.1", "/v1/classify", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, 4-i, info.Remaining)
	}

	allowed, info := l.Allow("10.0.0.1", "/v1/classify", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, time.Second, info.RetryAfter, float64(10*time.Millisecond))
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute, DefaultBurst: 2})

	l.Allow("c", "/v1/classify", "POST")
	l.Allow("c", "/v1/classify", "POST")
	allowed, _ := l.Allow("c", "/v1/classify", "POST")
	require.False(t, allowed)

	clock.Advance(1100 * time.Millisecond)
	allowed, _ = l.Allow("c", "/v1/classify", "POST")
	assert.True(t, allowed, "one token refills per second")

	allowed, _ = l.Allow("c", "/v1/classify", "POST")
	assert.False(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute, DefaultBurst: 1})

	allowed, _ := l.Allow("a", "/v1/classify", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("a", "/v1/classify", "POST")
	assert.False(t, allowed)
	allowed, _ = l.Allow("b", "/v1/classify", "POST")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"trusted": true},
		Blacklist:     map[string]bool{"banned": true},
	})

	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("trusted", "/v1/match", "POST")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("banned", "/v1/taxonomy", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: false})

	for i := 0; i < 100; i++ {
		allowed, info := l.Allow("c", "/v1/match", "POST")
		assert.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		DefaultBurst:    100,
		EndpointConfigs: DefaultEndpointConfigs(12),
	})

	// Burst for matching is 12/6 = 2.
	for i := 0; i < 2; i++ {
		allowed, info := l.Allow("c", "/v1/match", "POST")
		require.True(t, allowed)
		assert.Equal(t, 12, info.Limit)
	}
	allowed, _ := l.Allow("c", "/v1/match", "POST")
	assert.False(t, allowed)

	allowed, info := l.Allow("c", "/v1/classify", "POST")
	assert.True(t, allowed, "classification uses the default limit")
	assert.Equal(t, 600, info.Limit)
}

func TestLimiter_HealthAndMetricsUnlimited(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		assert.True(t, allowed)
		allowed, _ = l.Allow("c", "/metrics", "GET")
		assert.True(t, allowed)
	}
	assert.Zero(t, l.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute, DefaultBurst: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/v1/classify", "POST"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowedCount)
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})

	for i := 0; i < 3; i++ {
		l.Allow(fmt.Sprintf("client-%d", i), "/v1/classify", "POST")
	}
	require.Equal(t, 3, l.Len())

	clock.Advance(30 * time.Minute)
	l.Allow("client-0", "/v1/classify", "POST")
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 2, l.cleanupBuckets(time.Hour))
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Minute})
	l.Stop()
	l.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()

	allowed, info := l.Allow("c", "/v1/taxonomy", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 600, info.Limit)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 120,
		Burst:             20,
		MatchPerMinute:    30,
		CleanupInterval:   time.Minute,
		Whitelist:         []string{"127.0.0.1", ""},
	})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 120, cfg.DefaultLimit)
	assert.Equal(t, 20, cfg.DefaultBurst)
	assert.Equal(t, map[string]bool{"127.0.0.1": true}, cfg.Whitelist)
	require.Len(t, cfg.EndpointConfigs, 2)
	assert.Equal(t, 30, cfg.EndpointConfigs[0].Limit)
	assert.Equal(t, 5, cfg.EndpointConfigs[0].Burst)

	assert.False(t, FromConfig(config.RateLimitConfig{}).Enabled)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/v1/match", Method: "POST", Limit: 10},
		{Path: "/v1/taxonomy/", Method: "GET", Limit: 20},
	}

	tests := []struct {
		name      string
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{name: "exact", path: "/v1/match", method: "POST", wantLimit: 10},
		{name: "method mismatch", path: "/v1/match", method: "GET", wantNil: true},
		{name: "prefix", path: "/v1/taxonomy/jobs/comptable", method: "GET", wantLimit: 20},
		{name: "health unlimited", path: "/health", method: "GET", wantLimit: 0},
		{name: "no match", path: "/v1/classify", method: "POST", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}
