package ranking

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-matcher/internal/types"
)

// Score bands for recommendations
const (
	excellentScore = 80
	goodScore      = 60
	moderateScore  = 40
)

// Transition difficulty bands, on the compatibility factor
const (
	easyTransition     = 0.8
	moderateTransition = 0.6
	hardTransition     = 0.4
)

// generateRecommendations lists advice from the score band, the compatibility level and
// the blocking factors, without duplicates.
func generateRecommendations(res *types.MatchResult) []string {
	var recs []string

	switch {
	case res.Score >= excellentScore:
		recs = append(recs, "Excellent match: application strongly recommended")
	case res.Score >= goodScore:
		recs = append(recs, "Good match with minor adjustments: application recommended")
	case res.Score >= moderateScore:
		recs = append(recs, "Moderate match: review the transition requirements")
	default:
		recs = append(recs, "Weak match: a significant career change would be needed")
	}

	compatibility := res.Factors.Compatibility
	switch {
	case compatibility < hardTransition:
		recs = append(recs, fmt.Sprintf("Very different jobs: moving from %s to %s requires complete specialized training",
			describe(res.Candidate), describe(res.Job)))
	case compatibility < moderateTransition:
		recs = append(recs, fmt.Sprintf("Job adaptation required from %s to %s",
			subSectorOrSector(res.Candidate), subSectorOrSector(res.Job)))
	}

	for _, bf := range res.BlockingFactors {
		recs = append(recs, bf.Recommendation)
	}

	return dedupe(recs)
}

// analyzeTransition names the career move and rates its difficulty.
func analyzeTransition(cand, job *types.Classification, compatibility float64) types.Transition {
	var kind string
	switch {
	case !cand.HasSector() || !job.HasSector():
		kind = types.TransitionUnknown
	case cand.HasJob() && cand.SpecificJob == job.SpecificJob:
		kind = types.TransitionSameJob
	case cand.SubSector != "" && cand.SubSector == job.SubSector:
		kind = types.TransitionSameSubSector
	case cand.PrimarySector == job.PrimarySector:
		kind = types.TransitionSameSector
	default:
		kind = types.TransitionCrossSector
	}

	var difficulty string
	switch {
	case compatibility >= easyTransition:
		difficulty = "easy"
	case compatibility >= moderateTransition:
		difficulty = "moderate"
	case compatibility >= hardTransition:
		difficulty = "hard"
	default:
		difficulty = "very_hard"
	}

	return types.Transition{Type: kind, Difficulty: difficulty}
}

// generateExplanation creates a brief explanation of the score.
func generateExplanation(res *types.MatchResult) string {
	var parts []string

	compat := percent(res.Factors.Compatibility)
	switch {
	case res.Factors.Compatibility <= 0.25:
		parts = append(parts, fmt.Sprintf("Score %d driven by a major job incompatibility (%d%%) between %s and %s",
			res.Score, compat, describe(res.Candidate), describe(res.Job)))
	case res.Factors.Compatibility <= 0.5:
		parts = append(parts, fmt.Sprintf("Score %d lowered by a moderate gap (%d%%) between %s and %s",
			res.Score, compat, describe(res.Candidate), describe(res.Job)))
	default:
		parts = append(parts, fmt.Sprintf("Score %d with good compatibility (%d%%) between %s and %s",
			res.Score, compat, describe(res.Candidate), describe(res.Job)))
	}

	if res.Compatibility.Source == types.SourceJobOverride {
		parts = append(parts, "Job-level incompatibility rule applied")
	}

	skillsPct := percent(res.Factors.Skills)
	switch {
	case res.Factors.Skills >= 0.7:
		parts = append(parts, fmt.Sprintf("Strong skill match (%d%%)", skillsPct))
	case res.Factors.Skills >= 0.4:
		parts = append(parts, fmt.Sprintf("Moderate skill match (%d%%)", skillsPct))
	case res.Factors.Skills > 0:
		parts = append(parts, fmt.Sprintf("Weak skill match (%d%%)", skillsPct))
	default:
		parts = append(parts, "No skill matches")
	}

	if n := len(res.BlockingFactors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d blocking factor(s)", n))
	}

	return strings.Join(parts, ". ")
}

func subSectorOrSector(c *types.Classification) string {
	if c != nil && c.SubSector != "" {
		return c.SubSector
	}
	return describe(c)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
