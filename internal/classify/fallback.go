package classify

import (
	"sort"

	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/types"
)

type sectorScore struct {
	id      string
	order   int
	matched []string
}

// fallback classifies at sector level only, from the coarse sector vocabulary.
// When even that finds nothing, the result is empty with zero confidence.
func (c *Classifier) fallback(doc *parsing.Document, excluded map[string]bool) *types.Classification {
	var scores []sectorScore
	for _, sector := range c.reg.Sectors() {
		if excluded[sector.ID] {
			continue
		}
		matched := presentTerms(doc, sector.Keywords)
		if len(matched) == 0 {
			continue
		}
		scores = append(scores, sectorScore{id: sector.ID, order: sector.Order, matched: matched})
	}

	if len(scores) == 0 {
		return &types.Classification{TaxonomyVersion: c.reg.Version()}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if len(scores[i].matched) != len(scores[j].matched) {
			return len(scores[i].matched) > len(scores[j].matched)
		}
		return scores[i].order < scores[j].order
	})

	best := scores[0]
	n := float64(len(best.matched))

	var secondary []string
	for _, s := range scores[1:] {
		if len(secondary) == maxSecondarySectors {
			break
		}
		secondary = append(secondary, s.id)
	}

	matched := append([]string(nil), best.matched...)
	sort.Strings(matched)

	return &types.Classification{
		PrimarySector:    best.id,
		Confidence:       fallbackConfidenceCap * n / (n + 1),
		SecondarySectors: secondary,
		MatchedKeywords:  matched,
		TaxonomyVersion:  c.reg.Version(),
	}
}
