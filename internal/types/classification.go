// Package types provides type definitions for structured data used throughout the job-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// Context tells the classifier what kind of text it is reading.
type Context string

const (
	// ContextCV marks résumé text.
	ContextCV Context = "cv"
	// ContextPosting marks job-posting text.
	ContextPosting Context = "posting"
)

// ParseContext validates a context name. An empty name defaults to ContextCV.
func ParseContext(s string) (Context, error) {
	switch Context(s) {
	case "", ContextCV:
		return ContextCV, nil
	case ContextPosting:
		return ContextPosting, nil
	default:
		return "", fmt.Errorf("unknown context %q (expected cv or posting)", s)
	}
}

// Seniority levels, in ascending rank.
const (
	LevelUnspecified = "unspecified"
	LevelJunior      = "junior"
	LevelConfirmed   = "confirmed"
	LevelSenior      = "senior"
	LevelExpert      = "expert"
)

// levelRanks orders the known seniority levels.
var levelRanks = map[string]int{
	LevelJunior:    1,
	LevelConfirmed: 2,
	LevelSenior:    3,
	LevelExpert:    4,
}

// LevelRank returns the rank of a seniority level, or 0 for unknown and unspecified levels.
func LevelRank(level string) int {
	return levelRanks[level]
}

// IsLevel reports whether level is one of the four ranked seniority levels.
func IsLevel(level string) bool {
	_, ok := levelRanks[level]
	return ok
}

// Classification is the outcome of classifying one text against the taxonomy.
// Empty strings stand for null fields.
type Classification struct {
	PrimarySector           string   `json:"primary_sector,omitempty"`
	SubSector               string   `json:"sub_sector,omitempty"`
	SpecificJob             string   `json:"specific_job,omitempty"`
	JobLevel                string   `json:"job_level,omitempty"`
	Confidence              float64  `json:"confidence"`
	SpecializationScore     float64  `json:"specialization_score"`
	SecondarySectors        []string `json:"secondary_sectors,omitempty"`
	MatchedKeywords         []string `json:"matched_keywords,omitempty"`
	RequiredGroupsSatisfied int      `json:"required_groups_satisfied,omitempty"`
	TaxonomyVersion         string   `json:"taxonomy_version,omitempty"`
}

// HasJob reports whether a specific job was identified.
func (c *Classification) HasJob() bool {
	return c != nil && c.SpecificJob != ""
}

// HasSector reports whether at least a sector was identified.
func (c *Classification) HasSector() bool {
	return c != nil && c.PrimarySector != ""
}

// Unclassified reports whether nothing at all was identified.
func (c *Classification) Unclassified() bool {
	return !c.HasSector()
}
