// Package cache memoizes classifications behind a two-tier store: an in-process L1 and an
// optional shared L2 (Redis or PostgreSQL) guarded by a circuit breaker.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jonathan/job-matcher/internal/types"
)

// keyPrefix namespaces cache keys in shared stores.
const keyPrefix = "jm:cls:"

// Key identifies one cached classification.
type Key struct {
	TaxonomyVersion string
	Context         types.Context
	Digest          string
}

// NewKey derives a key from the taxonomy version, the context and the canonical text.
func NewKey(version string, c types.Context, canonical string) Key {
	sum := sha256.Sum256([]byte(strings.Join([]string{version, string(c), canonical}, "|")))
	return Key{
		TaxonomyVersion: version,
		Context:         c,
		Digest:          hex.EncodeToString(sum[:]),
	}
}

// String returns the storage form of the key.
func (k Key) String() string {
	return keyPrefix + k.Digest
}

// Store is a byte-oriented cache tier. Get reports a miss with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key Key) (value []byte, ok bool, err error)
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error
	Close() error
}
