package ranking

import (
	"fmt"
	"sort"

	"github.com/jonathan/job-matcher/internal/types"
)

// Thresholds decide when a blocking factor fires, and how severe it is.
type Thresholds struct {
	// SectorIncompatibility fires sector_incompatibility below this compatibility factor.
	SectorIncompatibility float64 `mapstructure:"sector_incompatibility" json:"sector_incompatibility"`
	// JobIncompatibility fires job_incompatibility below this override coefficient.
	JobIncompatibility float64 `mapstructure:"job_incompatibility" json:"job_incompatibility"`
	// ExperienceIrrelevance fires experience_irrelevance below this experience factor.
	ExperienceIrrelevance float64 `mapstructure:"experience_irrelevance" json:"experience_irrelevance"`
	// CriticalSkills fires critical_skills_missing below this critical-skill overlap.
	CriticalSkills float64 `mapstructure:"critical_skills" json:"critical_skills"`
	// MaxLevelGap fires experience_level_gap when the job outranks the candidate by more levels.
	MaxLevelGap int `mapstructure:"max_level_gap" json:"max_level_gap"`

	Severities map[string]types.Severity `mapstructure:"severities" json:"severities,omitempty"`
}

// DefaultThresholds returns the standard blocking thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SectorIncompatibility: 0.25,
		JobIncompatibility:    0.25,
		ExperienceIrrelevance: 0.30,
		CriticalSkills:        0.5,
		MaxLevelGap:           2,
		Severities:            DefaultSeverities(),
	}
}

// DefaultSeverities returns the standard severity of each blocking factor.
func DefaultSeverities() map[string]types.Severity {
	return map[string]types.Severity{
		types.BlockSectorIncompatibility: types.SeverityHigh,
		types.BlockJobIncompatibility:    types.SeverityHigh,
		types.BlockExperienceIrrelevance: types.SeverityMedium,
		types.BlockCriticalSkillsMissing: types.SeverityMedium,
		types.BlockExperienceLevelGap:    types.SeverityMedium,
	}
}

// Validate checks that every threshold is in range and every severity is known.
func (t Thresholds) Validate() error {
	ratios := []struct {
		name  string
		value float64
	}{
		{"sector_incompatibility", t.SectorIncompatibility},
		{"job_incompatibility", t.JobIncompatibility},
		{"experience_irrelevance", t.ExperienceIrrelevance},
		{"critical_skills", t.CriticalSkills},
	}
	for _, r := range ratios {
		if r.value < 0 || r.value > 1 {
			return fmt.Errorf("threshold %s must be within [0,1] (got %g)", r.name, r.value)
		}
	}
	if t.MaxLevelGap < 0 {
		return fmt.Errorf("threshold max_level_gap must not be negative (got %d)", t.MaxLevelGap)
	}
	names := make([]string, 0, len(t.Severities))
	for name := range t.Severities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sev := t.Severities[name]
		if _, ok := DefaultSeverities()[name]; !ok {
			return fmt.Errorf("unknown blocking factor %q", name)
		}
		if sev != types.SeverityHigh && sev != types.SeverityMedium {
			return fmt.Errorf("blocking factor %s: unknown severity %q", name, sev)
		}
	}
	return nil
}

// severity returns the configured severity of a blocking factor.
func (t Thresholds) severity(factor string) types.Severity {
	if sev, ok := t.Severities[factor]; ok {
		return sev
	}
	return DefaultSeverities()[factor]
}
