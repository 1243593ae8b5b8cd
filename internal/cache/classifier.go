package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/job-matcher/internal/classify"
	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/types"
)

// Stats are the cache counters since startup.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	L2Errors int64   `json:"l2_errors"`
	Entries  int     `json:"entries"`
	HitRate  float64 `json:"hit_rate"`
	Backend  string  `json:"backend"`
	// Breaker is the L2 circuit breaker state, empty without a breaker.
	Breaker string `json:"breaker,omitempty"`
}

// Options configure a caching Classifier.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	// L2 is the shared tier, nil for memory only. Wrap it in a BreakerStore first.
	L2      Store
	Backend string
	Logger  *zap.Logger
}

// Classifier memoizes a classify.Classifier. Concurrent misses on the same key share one
// computation.
type Classifier struct {
	inner   *classify.Classifier
	store   *Tiered
	ttl     time.Duration
	backend string
	logger  *zap.Logger
	group   singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	l2Errors atomic.Int64
}

// NewClassifier wraps inner with a cache.
func NewClassifier(inner *classify.Classifier, opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := opts.Backend
	if backend == "" {
		backend = "memory"
	}

	c := &Classifier{
		inner:   inner,
		ttl:     opts.TTL,
		backend: backend,
		logger:  logger,
	}
	c.store = NewTiered(NewMemoryStore(opts.MaxEntries), opts.L2, opts.TTL, logger)
	c.store.onL2 = func(error) { c.l2Errors.Add(1) }
	return c
}

// Classify returns the cached classification of text, computing and storing it on a miss.
// Invalid input is never cached.
func (c *Classifier) Classify(ctx context.Context, text string, ctxKind types.Context) (*types.Classification, error) {
	doc, err := classify.Prepare(text)
	if err != nil {
		return nil, err
	}
	return c.ClassifyDocument(ctx, doc, ctxKind)
}

// ClassifyDocument is Classify for a document already built by classify.Prepare.
func (c *Classifier) ClassifyDocument(ctx context.Context, doc *parsing.Document, ctxKind types.Context) (*types.Classification, error) {
	key := NewKey(c.inner.Registry().Version(), ctxKind, doc.Canonical())
	if cached, ok := c.load(ctx, key); ok {
		c.hits.Add(1)
		return cached, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		result := c.inner.ClassifyDocument(doc, ctxKind)
		c.save(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneClassification(v.(*types.Classification)), nil
}

// Stats returns a snapshot of the counters.
func (c *Classifier) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := Stats{
		Hits:     hits,
		Misses:   misses,
		L2Errors: c.l2Errors.Load(),
		Entries:  c.store.Len(),
		Backend:  c.backend,
	}
	if b, ok := c.store.l2.(*BreakerStore); ok {
		s.Breaker = b.State()
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// Close releases both tiers.
func (c *Classifier) Close() error {
	return c.store.Close()
}

func (c *Classifier) load(ctx context.Context, key Key) (*types.Classification, bool) {
	data, ok, _ := c.store.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var cls types.Classification
	if err := json.Unmarshal(data, &cls); err != nil {
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}
	return &cls, true
}

func (c *Classifier) save(ctx context.Context, key Key, cls *types.Classification) {
	data, err := json.Marshal(cls)
	if err != nil {
		c.logger.Warn("failed to encode classification for cache", zap.Error(err))
		return
	}
	_ = c.store.Set(ctx, key, data, c.ttl)
}

// cloneClassification gives every singleflight waiter its own copy.
func cloneClassification(src *types.Classification) *types.Classification {
	dst := *src
	dst.SecondarySectors = append([]string(nil), src.SecondarySectors...)
	dst.MatchedKeywords = append([]string(nil), src.MatchedKeywords...)
	return &dst
}
