// Package ranking scores a candidate against target jobs and ranks the results.
package ranking

import (
	"math"
	"strings"

	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/skills"
	"github.com/jonathan/job-matcher/internal/types"
)

// Experience base score by years when the job states no requirement
const (
	noExperienceScore   = 0.2
	earlyCareerScore    = 0.5
	establishedScore    = 0.8
	seasonedScore       = 1.0
	earlyCareerMaxYears = 2.0
	establishedMaxYears = 5.0
)

const (
	defaultStrictness = 0.5

	sameLocationScore    = 1.0
	nearbyLocationScore  = 0.8
	distantLocationScore = 0.6

	matchingContractScore = 1.0
	otherContractScore    = 0.3
)

// levelCompatibility maps the rank gap between two seniority levels to a multiplier.
var levelCompatibility = map[int]float64{
	0: 1.0,
	1: 0.85,
	2: 0.65,
	3: 0.40,
}

// computeCompatibilityFactor tightens the base coefficient when both sides are highly
// specialized: two specialists in different fields transfer less than two generalists.
// A base of 1.0 is left untouched.
func computeCompatibilityFactor(base, candSpecialization, jobSpecialization, strictness float64) float64 {
	mean := (candSpecialization + jobSpecialization) / 2
	return clamp01(base * (1 - strictness*mean*(1-base)))
}

// specialization returns the specialization a side's compatibility is judged with. Nothing is
// known about an unclassified side, so it is judged as strictly as the most specialized one.
func specialization(c *types.Classification) float64 {
	if c.Unclassified() {
		return 1
	}
	return c.SpecializationScore
}

// experienceBase scores years of experience, against the job's requirement when it states one.
// candidateYears must not be nil.
func experienceBase(candidateYears, requiredYears *float64) float64 {
	years := math.Max(0, *candidateYears)
	if requiredYears != nil && *requiredYears > 0 {
		return math.Min(1, years / *requiredYears)
	}

	switch {
	case years == 0:
		return noExperienceScore
	case years <= earlyCareerMaxYears:
		return earlyCareerScore
	case years <= establishedMaxYears:
		return establishedScore
	default:
		return seasonedScore
	}
}

// levelGap returns job rank minus candidate rank. ok is false unless both levels are ranked.
func levelGap(candLevel, jobLevel string) (gap int, ok bool) {
	c, j := types.LevelRank(candLevel), types.LevelRank(jobLevel)
	if c == 0 || j == 0 {
		return 0, false
	}
	return j - c, true
}

func levelMultiplier(candLevel, jobLevel string) float64 {
	gap, ok := levelGap(candLevel, jobLevel)
	if !ok {
		return 1.0
	}
	if gap < 0 {
		gap = -gap
	}
	return levelCompatibility[gap]
}

// computeExperienceFactor weighs years and seniority by how transferable the experience is.
// It is present only when the candidate states their years of experience, and zero against a
// job that could not be classified at all.
func computeExperienceFactor(cand, job Profile, compatibility float64) *float64 {
	if cand.Attributes.YearsExperience == nil {
		return nil
	}
	if job.Classification.Unclassified() {
		zero := 0.0
		return &zero
	}
	base := experienceBase(cand.Attributes.YearsExperience, job.Attributes.YearsExperience)
	score := clamp01(base * levelMultiplier(cand.level(), job.level()) * compatibility)
	return &score
}

// computeSkillsFactor returns the weighted share of the job's skill targets the candidate covers.
// A classified job without targets is fully covered. An unclassified job without targets
// expects nothing the candidate could show, so it scores zero.
func computeSkillsFactor(cand, job Profile) float64 {
	if job.Targets.Empty() {
		if !job.Classification.HasJob() {
			return 0
		}
		return 1.0
	}
	ratio, ok := skills.Overlap(job.Targets.Skills, cand.Skills)
	if !ok {
		return 1.0
	}
	return clamp01(ratio)
}

// computeCriticalOverlap returns the share of critical skills covered. ok is false when the job
// flags none.
func computeCriticalOverlap(cand, job Profile) (float64, bool) {
	critical := job.Targets.Critical()
	if len(critical) == 0 {
		return 0, false
	}
	return skills.Overlap(critical, cand.Skills)
}

// computeLocationFactor is present only when both sides state a location.
func computeLocationFactor(cand, job types.Attributes) *float64 {
	candLoc, jobLoc := parsing.Normalize(cand.Location), parsing.Normalize(job.Location)
	if candLoc == "" || jobLoc == "" {
		return nil
	}

	score := distantLocationScore
	switch {
	case job.Remote || candLoc == jobLoc:
		score = sameLocationScore
	case shareToken(candLoc, jobLoc):
		score = nearbyLocationScore
	}
	return &score
}

// computeContractFactor is present only when the job states a contract type and the candidate
// lists the ones they accept.
func computeContractFactor(cand, job types.Attributes) *float64 {
	want := parsing.Normalize(job.ContractType)
	if want == "" || len(cand.ContractTypes) == 0 {
		return nil
	}

	score := otherContractScore
	for _, c := range cand.ContractTypes {
		if parsing.Normalize(c) == want {
			score = matchingContractScore
			break
		}
	}
	return &score
}

// finalScore blends the present factors and renormalizes the weights over them.
func finalScore(f types.FactorScores, w Weights) (int, map[string]float64) {
	type term struct {
		name   string
		weight float64
		value  float64
	}
	terms := []term{
		{FactorCompatibility, w.Compatibility, f.Compatibility},
	}
	if f.Experience != nil {
		terms = append(terms, term{FactorExperience, w.Experience, *f.Experience})
	}
	terms = append(terms, term{FactorSkills, w.Skills, f.Skills})
	if f.Location != nil {
		terms = append(terms, term{FactorLocation, w.Location, *f.Location})
	}
	if f.Contract != nil {
		terms = append(terms, term{FactorContract, w.Contract, *f.Contract})
	}

	var total, weighted float64
	for _, t := range terms {
		total += t.weight
		weighted += t.weight * t.value
	}

	applied := make(map[string]float64, len(terms))
	if total == 0 {
		return 0, applied
	}
	for _, t := range terms {
		applied[t.name] = t.weight / total
	}

	score := int(math.Round(100 * weighted / total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, applied
}

func shareToken(a, b string) bool {
	tokens := make(map[string]bool)
	for _, t := range strings.Fields(a) {
		tokens[t] = true
	}
	for _, t := range strings.Fields(b) {
		if tokens[t] {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
