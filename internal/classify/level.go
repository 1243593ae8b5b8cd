package classify

import (
	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/taxonomy"
	"github.com/jonathan/job-matcher/internal/types"
)

// deriveLevel looks for seniority fragments in the clauses that mention the winning job.
// Explicit seniority words for the context are searched before the job's own title fragments.
func (c *Classifier) deriveLevel(doc *parsing.Document, ctx types.Context, winner *hit) string {
	clauses := make(map[int]bool)
	for _, term := range winner.matched {
		for _, i := range doc.ClausesWith(term) {
			clauses[i] = true
		}
	}

	if level, ok := scanLevels(doc, clauses, c.reg.ContextLevels(ctx)); ok {
		return level
	}
	if level, ok := scanLevels(doc, clauses, winner.job.Levels); ok {
		return level
	}
	return types.LevelUnspecified
}

func scanLevels(doc *parsing.Document, clauses map[int]bool, levels []taxonomy.LevelIndicators) (string, bool) {
	for _, l := range levels {
		for _, indicator := range l.Indicators {
			for _, i := range doc.ClausesWith(indicator) {
				if clauses[i] {
					return l.Level, true
				}
			}
		}
	}
	return "", false
}
