package db

import (
	"time"
)

// CachedClassification is one row of the classification cache
type CachedClassification struct {
	Key             string        `json:"key"`
	TaxonomyVersion string        `json:"taxonomy_version"`
	Context         string        `json:"context"`
	Payload         []byte        `json:"payload"`
	TTL             time.Duration `json:"-"`
}
