package cache

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig controls when an L2 store is taken out of the request path.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32 `mapstructure:"max_requests"`
	// Interval clears the closed-state counts. 0 never clears them.
	Interval time.Duration `mapstructure:"interval"`
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `mapstructure:"timeout"`
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32 `mapstructure:"consecutive_failures"`
}

// DefaultBreakerConfig returns the standard breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

type lookup struct {
	value []byte
	ok    bool
}

// BreakerStore guards a Store with a circuit breaker. While open, calls fail fast with
// gobreaker.ErrOpenState instead of reaching the store.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[lookup]
}

// NewBreakerStore wraps next.
func NewBreakerStore(name string, next Store, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerConfig().ConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[lookup](settings),
	}
}

// Get reads through the breaker. A miss is a success.
func (b *BreakerStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	res, err := b.cb.Execute(func() (lookup, error) {
		value, ok, err := b.next.Get(ctx, key)
		return lookup{value: value, ok: ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	return res.value, res.ok, nil
}

// Set writes through the breaker.
func (b *BreakerStore) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	_, err := b.cb.Execute(func() (lookup, error) {
		return lookup{}, b.next.Set(ctx, key, value, ttl)
	})
	return err
}

// State returns the breaker state name: closed, half-open or open.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

// Close closes the wrapped store.
func (b *BreakerStore) Close() error {
	return b.next.Close()
}
