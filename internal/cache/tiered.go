package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Tiered reads L1 then L2 and populates L1 on an L2 hit. L2 failures are logged and
// reported as misses; they never surface to the caller.
type Tiered struct {
	l1     *MemoryStore
	l2     Store // nil when there is no shared tier
	ttl    time.Duration
	logger *zap.Logger
	onL2   func(err error)
}

// NewTiered combines an L1 with an optional L2. ttl applies to entries copied from L2 into L1.
func NewTiered(l1 *MemoryStore, l2 Store, ttl time.Duration, logger *zap.Logger) *Tiered {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiered{l1: l1, l2: l2, ttl: ttl, logger: logger}
}

// Get never returns an error.
func (t *Tiered) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	if value, ok, _ := t.l1.Get(ctx, key); ok {
		return value, true, nil
	}
	if t.l2 == nil {
		return nil, false, nil
	}

	value, ok, err := t.l2.Get(ctx, key)
	if err != nil {
		t.l2Failed("get", err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	_ = t.l1.Set(ctx, key, value, t.ttl)
	return value, true, nil
}

// Set writes both tiers. An L2 failure is logged, never returned.
func (t *Tiered) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	_ = t.l1.Set(ctx, key, value, ttl)
	if t.l2 != nil {
		if err := t.l2.Set(ctx, key, value, ttl); err != nil {
			t.l2Failed("set", err)
		}
	}
	return nil
}

// Len returns the number of L1 entries.
func (t *Tiered) Len() int {
	return t.l1.Len()
}

// Close closes both tiers.
func (t *Tiered) Close() error {
	err := t.l1.Close()
	if t.l2 != nil {
		err = errors.Join(err, t.l2.Close())
	}
	return err
}

func (t *Tiered) l2Failed(op string, err error) {
	t.logger.Warn("cache L2 unavailable, treating as miss", zap.String("op", op), zap.Error(err))
	if t.onL2 != nil {
		t.onL2(err)
	}
}
