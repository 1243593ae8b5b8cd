// Package classify turns free-form occupational text into a job, sub-sector and sector
// assignment against a taxonomy registry.
package classify

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/taxonomy"
	"github.com/jonathan/job-matcher/internal/types"
)

const (
	// secondaryRatio is the share of the winner's specialization a runner-up needs to be
	// reported as a secondary sector.
	secondaryRatio = 0.3
	// maxSecondarySectors caps the secondary sector list.
	maxSecondarySectors = 3
	// fallbackConfidenceCap bounds the confidence of a sector-only classification.
	fallbackConfidenceCap = 0.5
)

// Classifier is a pure function of the registry and its input. It is safe for concurrent use.
type Classifier struct {
	reg *taxonomy.Registry
}

// New creates a Classifier over reg.
func New(reg *taxonomy.Registry) *Classifier {
	return &Classifier{reg: reg}
}

// Registry returns the registry the classifier reads.
func (c *Classifier) Registry() *taxonomy.Registry {
	return c.reg
}

// hit is a job whose required combinations are satisfied and whose exclusions are not.
type hit struct {
	job            *taxonomy.JobDefinition
	matched        []string
	groups         int
	specialization float64
}

// Classify assigns text to the most specific job it can identify. ctx only biases which
// seniority vocabulary is searched.
func (c *Classifier) Classify(text string, ctx types.Context) (*types.Classification, error) {
	doc, err := Prepare(text)
	if err != nil {
		return nil, err
	}
	return c.ClassifyDocument(doc, ctx), nil
}

// Prepare normalizes text into a document, rejecting text that is not valid UTF-8 or holds
// no words.
func Prepare(text string) (*parsing.Document, error) {
	if !utf8.ValidString(text) {
		return nil, &InvalidInputError{Field: "text", Message: "text is not valid UTF-8"}
	}
	doc := parsing.NewDocument(text)
	if doc.Empty() {
		return nil, &InvalidInputError{Field: "text", Message: "text contains no words"}
	}
	return doc, nil
}

// ClassifyDocument classifies an already normalized, non-empty document.
func (c *Classifier) ClassifyDocument(doc *parsing.Document, ctx types.Context) *types.Classification {
	excluded := c.excludedSectors(doc)

	hits := c.collectHits(doc, excluded)
	if len(hits) == 0 {
		return c.fallback(doc, excluded)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.specialization != b.specialization {
			return a.specialization > b.specialization
		}
		if a.groups != b.groups {
			return a.groups > b.groups
		}
		return a.job.Order < b.job.Order
	})

	winner := hits[0]
	matched := append([]string(nil), winner.matched...)
	sort.Strings(matched)

	return &types.Classification{
		PrimarySector:           winner.job.Sector,
		SubSector:               winner.job.SubSector,
		SpecificJob:             winner.job.ID,
		JobLevel:                c.deriveLevel(doc, ctx, winner),
		Confidence:              confidence(winner.specialization, winner.groups),
		SpecializationScore:     winner.specialization,
		SecondarySectors:        secondarySectors(hits),
		MatchedKeywords:         matched,
		RequiredGroupsSatisfied: winner.groups,
		TaxonomyVersion:         c.reg.Version(),
	}
}

// excludedSectors applies the global exclusion rules.
func (c *Classifier) excludedSectors(doc *parsing.Document) map[string]bool {
	excluded := make(map[string]bool)
	for _, rule := range c.reg.ExclusionRules() {
		if !rule.When.Matches(doc) {
			continue
		}
		for _, sector := range rule.ExcludeSectors {
			excluded[sector] = true
		}
	}
	return excluded
}

func (c *Classifier) collectHits(doc *parsing.Document, excluded map[string]bool) []*hit {
	var hits []*hit
	for _, job := range c.reg.Jobs() {
		if excluded[job.Sector] {
			continue
		}
		if job.Exclude.Matches(doc) {
			continue
		}

		groups := 0
		if len(job.Required) > 0 {
			result := job.Required.Evaluate(doc)
			if !result.Any() {
				continue
			}
			groups = result.Count()
		} else if !anyPresent(doc, job.Keywords) {
			continue
		}

		matched := presentTerms(doc, job.Vocabulary())
		subSectorMatched := presentTerms(doc, c.reg.SubSectorVocabulary(job.SubSector))
		hits = append(hits, &hit{
			job:            job,
			matched:        matched,
			groups:         groups,
			specialization: float64(len(matched)) / float64(len(subSectorMatched)+1),
		})
	}
	return hits
}

// secondarySectors lists the distinct sectors of the runner-up hits that carry a meaningful
// share of the winner's specialization, in ranking order.
func secondarySectors(ranked []*hit) []string {
	winner := ranked[0]
	threshold := secondaryRatio * winner.specialization

	var sectors []string
	seen := map[string]bool{winner.job.Sector: true}
	for _, h := range ranked[1:] {
		if len(sectors) == maxSecondarySectors {
			break
		}
		if h.specialization < threshold || seen[h.job.Sector] {
			continue
		}
		seen[h.job.Sector] = true
		sectors = append(sectors, h.job.Sector)
	}
	return sectors
}

// confidence grows with specialization and with the number of satisfied required groups.
func confidence(specialization float64, groups int) float64 {
	return math.Min(1, specialization*(1-math.Pow(0.5, float64(groups+1))))
}

func anyPresent(doc *parsing.Document, terms []string) bool {
	for _, term := range terms {
		if doc.Contains(term) {
			return true
		}
	}
	return false
}

func presentTerms(doc *parsing.Document, terms []string) []string {
	var present []string
	for _, term := range terms {
		if doc.Contains(term) {
			present = append(present, term)
		}
	}
	return present
}
