package cache

import (
	"context"
	"time"

	"github.com/jonathan/job-matcher/internal/db"
)

// PostgresStore is a shared L2 tier on the classification_cache table.
type PostgresStore struct {
	db *db.DB
}

// NewPostgresStore wraps an open database. The table is created if missing.
func NewPostgresStore(ctx context.Context, database *db.DB) (*PostgresStore, error) {
	if err := database.Migrate(ctx); err != nil {
		return nil, err
	}
	return &PostgresStore{db: database}, nil
}

// Get reads a live row.
func (p *PostgresStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	payload, err := p.db.GetCachedClassification(ctx, key.String())
	if err != nil {
		return nil, false, err
	}
	return payload, payload != nil, nil
}

// Set upserts a row.
func (p *PostgresStore) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	return p.db.PutCachedClassification(ctx, &db.CachedClassification{
		Key:             key.String(),
		TaxonomyVersion: key.TaxonomyVersion,
		Context:         string(key.Context),
		Payload:         value,
		TTL:             ttl,
	})
}

// Close closes the pool.
func (p *PostgresStore) Close() error {
	p.db.Close()
	return nil
}
