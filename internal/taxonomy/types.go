// Package taxonomy provides the job registry: the sector → sub-sector → job hierarchy,
// its detection rules and the sub-sector compatibility table.
package taxonomy

import (
	"github.com/jonathan/job-matcher/internal/rules"
)

// Sector is a top-level category.
type Sector struct {
	ID    string
	Label string
	// Keywords are the coarse vocabulary used for sector-only fallback classification.
	Keywords []string
	Order    int
}

// SubSector is a mid-level category. Its id is unique across the whole registry.
type SubSector struct {
	ID     string
	Sector string
	Label  string
	Order  int
}

// LevelIndicators maps text fragments to a seniority level.
type LevelIndicators struct {
	Level      string
	Indicators []string
}

// Override is a job-level compatibility coefficient that replaces the sub-sector one.
type Override struct {
	Job         string
	Coefficient float64
	Reason      string
}

// JobDefinition is a leaf of the taxonomy. All terms are stored normalized.
type JobDefinition struct {
	ID             string
	Label          string
	Sector         string
	SubSector      string
	Keywords       []string
	Required       rules.Set
	Exclude        rules.Set
	Skills         []string
	CriticalSkills []string
	Levels         []LevelIndicators
	Overrides      []Override
	Order          int

	vocabulary []string
}

// Vocabulary returns the distinct terms that identify the job: keywords, required-combination
// terms and skills, in that order.
func (j *JobDefinition) Vocabulary() []string {
	return j.vocabulary
}

// OverrideFor returns the override this job declares against another job.
func (j *JobDefinition) OverrideFor(jobID string) (Override, bool) {
	for _, o := range j.Overrides {
		if o.Job == jobID {
			return o, true
		}
	}
	return Override{}, false
}

// IsCritical reports whether a normalized skill is flagged critical for the job.
func (j *JobDefinition) IsCritical(skill string) bool {
	for _, s := range j.CriticalSkills {
		if s == skill {
			return true
		}
	}
	return false
}

func (j *JobDefinition) buildVocabulary() {
	seen := make(map[string]bool)
	add := func(terms []string) {
		for _, t := range terms {
			if !seen[t] {
				seen[t] = true
				j.vocabulary = append(j.vocabulary, t)
			}
		}
	}
	add(j.Keywords)
	add(j.Required.Terms())
	add(j.Skills)
}

// CompatibilityEntry is a directed sub-sector pair coefficient.
type CompatibilityEntry struct {
	From        string
	To          string
	Coefficient float64
}

// CompatibilityTable holds the authored sub-sector coefficients and their defaults.
type CompatibilityTable struct {
	SameSectorDefault  float64
	CrossSectorDefault float64
	Entries            []CompatibilityEntry
}

// ExclusionRule removes whole sectors from the candidate set when its condition holds.
type ExclusionRule struct {
	ID             string
	When           rules.Set
	ExcludeSectors []string
	Reason         string
}

// document mirrors the JSON artifact.
type document struct {
	Version                string                 `json:"version"`
	Language               string                 `json:"language"`
	Sectors                []sectorDoc            `json:"sectors"`
	SubSectors             []subSectorDoc         `json:"sub_sectors"`
	Jobs                   []jobDoc               `json:"jobs"`
	Compatibility          compatibilityDoc       `json:"compatibility"`
	ExclusionRules         []exclusionRuleDoc     `json:"exclusion_rules"`
	ContextLevelIndicators map[string][]levelsDoc `json:"context_level_indicators"`
}

type sectorDoc struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}

type subSectorDoc struct {
	ID     string `json:"id"`
	Sector string `json:"sector"`
	Label  string `json:"label"`
}

type jobDoc struct {
	ID                   string        `json:"id"`
	Label                string        `json:"label"`
	Sector               string        `json:"sector"`
	SubSector            string        `json:"sub_sector"`
	Keywords             []string      `json:"keywords"`
	RequiredCombinations [][]string    `json:"required_combinations"`
	ExcludeCombinations  [][]string    `json:"exclude_combinations"`
	Skills               []string      `json:"skills"`
	CriticalSkills       []string      `json:"critical_skills"`
	Levels               []levelsDoc   `json:"levels"`
	IncompatibleWith     []overrideDoc `json:"incompatible_with"`
}

type levelsDoc struct {
	Level      string   `json:"level"`
	Indicators []string `json:"indicators"`
}

type overrideDoc struct {
	Job         string  `json:"job"`
	Coefficient float64 `json:"coefficient"`
	Reason      string  `json:"reason"`
}

type compatibilityDoc struct {
	SameSectorDefault  float64            `json:"same_sector_default"`
	CrossSectorDefault float64            `json:"cross_sector_default"`
	Entries            []compatibilityRow `json:"entries"`
}

type compatibilityRow struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Coefficient float64 `json:"coefficient"`
}

type exclusionRuleDoc struct {
	ID             string     `json:"id"`
	When           [][]string `json:"when"`
	ExcludeSectors []string   `json:"exclude_sectors"`
	Reason         string     `json:"reason"`
}
