// Package db provides PostgreSQL access for the classification cache.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const createClassificationCacheTable = `
CREATE TABLE IF NOT EXISTS classification_cache (
	cache_key        TEXT PRIMARY KEY,
	taxonomy_version TEXT NOT NULL,
	context          TEXT NOT NULL,
	payload          JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS classification_cache_expires_at_idx ON classification_cache (expires_at);
`

// Migrate creates the tables this package needs if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, createClassificationCacheTable); err != nil {
		return fmt.Errorf("failed to migrate classification_cache: %w", err)
	}
	return nil
}

// GetCachedClassification returns the payload stored under key, or nil if there is none or it expired
func (db *DB) GetCachedClassification(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := db.pool.QueryRow(ctx,
		`SELECT payload FROM classification_cache
		 WHERE cache_key = $1 AND (expires_at IS NULL OR expires_at > NOW())`,
		key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached classification: %w", err)
	}
	return payload, nil
}

// PutCachedClassification stores a payload under key. A zero ttl never expires.
func (db *DB) PutCachedClassification(ctx context.Context, entry *CachedClassification) error {
	var expiresAt *time.Time
	if entry.TTL > 0 {
		t := time.Now().Add(entry.TTL)
		expiresAt = &t
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO classification_cache (cache_key, taxonomy_version, context, payload, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cache_key) DO UPDATE
		 SET payload = $4, expires_at = $5, created_at = NOW()`,
		entry.Key, entry.TaxonomyVersion, entry.Context, entry.Payload, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cached classification: %w", err)
	}
	return nil
}

// DeleteCachedClassification removes one entry
func (db *DB) DeleteCachedClassification(ctx context.Context, key string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM classification_cache WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete cached classification: %w", err)
	}
	return nil
}

// PurgeExpiredClassifications deletes expired entries and returns how many were removed
func (db *DB) PurgeExpiredClassifications(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM classification_cache WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge classification cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeTaxonomyVersion deletes every entry computed with a taxonomy version other than keep
func (db *DB) PurgeTaxonomyVersion(ctx context.Context, keep string) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM classification_cache WHERE taxonomy_version <> $1`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale taxonomy versions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountCachedClassifications returns the number of live entries
func (db *DB) CountCachedClassifications(ctx context.Context) (int64, error) {
	var n int64
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM classification_cache WHERE expires_at IS NULL OR expires_at > NOW()`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cached classifications: %w", err)
	}
	return n, nil
}
