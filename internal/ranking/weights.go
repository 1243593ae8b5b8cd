package ranking

import (
	"fmt"
	"sort"
	"strings"
)

// Factor names, as used in weight overrides and in MatchResult.Weights.
const (
	FactorCompatibility = "compatibility"
	FactorExperience    = "experience"
	FactorSkills        = "skills"
	FactorLocation      = "location"
	FactorContract      = "contract"
)

// Default weights for scoring components
const (
	defaultCompatibilityWeight = 0.35
	defaultExperienceWeight    = 0.20
	defaultSkillsWeight        = 0.35
	defaultLocationWeight      = 0.05
	defaultContractWeight      = 0.05

	// maxAuxiliaryWeight bounds location + contract so they can never dominate.
	maxAuxiliaryWeight = 0.10
)

// WeightError reports an invalid weight configuration or override.
type WeightError struct {
	Factor  string
	Message string
}

func (e *WeightError) Error() string {
	if e.Factor != "" {
		return fmt.Sprintf("invalid weight %s: %s", e.Factor, e.Message)
	}
	return fmt.Sprintf("invalid weights: %s", e.Message)
}

// Weights are the relative importance of each scoring factor.
type Weights struct {
	Compatibility float64 `mapstructure:"compatibility" json:"compatibility"`
	Experience    float64 `mapstructure:"experience" json:"experience"`
	Skills        float64 `mapstructure:"skills" json:"skills"`
	Location      float64 `mapstructure:"location" json:"location"`
	Contract      float64 `mapstructure:"contract" json:"contract"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Compatibility: defaultCompatibilityWeight,
		Experience:    defaultExperienceWeight,
		Skills:        defaultSkillsWeight,
		Location:      defaultLocationWeight,
		Contract:      defaultContractWeight,
	}
}

// Validate rejects negative weights, auxiliary factors heavier than 0.10 combined, and a zero
// core weight.
func (w Weights) Validate() error {
	for _, f := range w.factors() {
		if f.value < 0 {
			return &WeightError{Factor: f.name, Message: fmt.Sprintf("must not be negative (got %g)", f.value)}
		}
	}
	if w.Location+w.Contract > maxAuxiliaryWeight+1e-9 {
		return &WeightError{Message: fmt.Sprintf("location + contract must not exceed %.2f (got %g)", maxAuxiliaryWeight, w.Location+w.Contract)}
	}
	if w.Compatibility+w.Experience+w.Skills <= 0 {
		return &WeightError{Message: "compatibility + experience + skills must be positive"}
	}
	return nil
}

// Merge returns a copy of w with overrides applied, validated. Unknown factor names are rejected.
func (w Weights) Merge(overrides map[string]float64) (Weights, error) {
	merged := w
	fields := map[string]*float64{
		FactorCompatibility: &merged.Compatibility,
		FactorExperience:    &merged.Experience,
		FactorSkills:        &merged.Skills,
		FactorLocation:      &merged.Location,
		FactorContract:      &merged.Contract,
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field, ok := fields[strings.ToLower(name)]
		if !ok {
			return Weights{}, &WeightError{Factor: name, Message: "unknown factor"}
		}
		*field = overrides[name]
	}
	if err := merged.Validate(); err != nil {
		return Weights{}, err
	}
	return merged, nil
}

type namedWeight struct {
	name  string
	value float64
}

// factors lists the weights in a fixed order.
func (w Weights) factors() []namedWeight {
	return []namedWeight{
		{FactorCompatibility, w.Compatibility},
		{FactorExperience, w.Experience},
		{FactorSkills, w.Skills},
		{FactorLocation, w.Location},
		{FactorContract, w.Contract},
	}
}
