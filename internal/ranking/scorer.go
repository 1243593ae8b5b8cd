package ranking

import (
	"fmt"

	"github.com/jonathan/job-matcher/internal/compat"
	"github.com/jonathan/job-matcher/internal/types"
)

// Profile is one side of a match: its classification plus what is known about its skills.
type Profile struct {
	Classification *types.Classification
	Attributes     types.Attributes
	// Skills are the normalized skills the side shows (candidate side).
	Skills []string
	// Targets are the skills the side expects (job side).
	Targets *types.SkillTargets
}

func (p Profile) level() string {
	if p.Classification == nil {
		return ""
	}
	return p.Classification.JobLevel
}

// Config holds the tunable parts of a Scorer.
type Config struct {
	Weights    Weights
	Strictness float64
	Thresholds Thresholds
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		Weights:    DefaultWeights(),
		Strictness: defaultStrictness,
		Thresholds: DefaultThresholds(),
	}
}

// Scorer computes MatchResults. It never reads the clock and is safe for concurrent use.
type Scorer struct {
	matrix     *compat.Matrix
	weights    Weights
	strictness float64
	thresholds Thresholds
}

// NewScorer validates cfg and creates a Scorer.
func NewScorer(matrix *compat.Matrix, cfg Config) (*Scorer, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.Strictness < 0 || cfg.Strictness > 1 {
		return nil, fmt.Errorf("strictness must be within [0,1] (got %g)", cfg.Strictness)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{
		matrix:     matrix,
		weights:    cfg.Weights,
		strictness: cfg.Strictness,
		thresholds: cfg.Thresholds,
	}, nil
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// WithWeights returns a Scorer whose weights are the configured ones merged with overrides.
// The receiver is left unchanged.
func (s *Scorer) WithWeights(overrides map[string]float64) (*Scorer, error) {
	if len(overrides) == 0 {
		return s, nil
	}
	merged, err := s.weights.Merge(overrides)
	if err != nil {
		return nil, err
	}
	clone := *s
	clone.weights = merged
	return &clone, nil
}

// Score computes the match of a candidate against one job.
func (s *Scorer) Score(cand, job Profile) *types.MatchResult {
	if cand.Classification == nil {
		cand.Classification = &types.Classification{}
	}
	if job.Classification == nil {
		job.Classification = &types.Classification{}
	}

	resolution := s.matrix.Resolve(cand.Classification, job.Classification)
	compatibility := computeCompatibilityFactor(
		resolution.Coefficient,
		specialization(cand.Classification),
		specialization(job.Classification),
		s.strictness,
	)

	factors := types.FactorScores{
		Compatibility: compatibility,
		Experience:    computeExperienceFactor(cand, job, compatibility),
		Skills:        computeSkillsFactor(cand, job),
		Location:      computeLocationFactor(cand.Attributes, job.Attributes),
		Contract:      computeContractFactor(cand.Attributes, job.Attributes),
	}
	score, applied := finalScore(factors, s.weights)

	res := &types.MatchResult{
		Score:         score,
		Factors:       factors,
		Weights:       applied,
		Compatibility: resolution,
		Candidate:     cand.Classification,
		Job:           job.Classification,
	}
	res.BlockingFactors = s.detectBlockingFactors(cand, job, res)
	res.Recommendations = generateRecommendations(res)
	res.Transition = analyzeTransition(cand.Classification, job.Classification, compatibility)
	res.Explanation = generateExplanation(res)
	return res
}
