package types

// Attributes are the structured facts supplied alongside a text.
type Attributes struct {
	Skills          []string `json:"skills,omitempty"`
	CriticalSkills  []string `json:"critical_skills,omitempty"`
	YearsExperience *float64 `json:"years_experience,omitempty"`
	Location        string   `json:"location,omitempty"`
	Remote          bool     `json:"remote,omitempty"`
	ContractType    string   `json:"contract_type,omitempty"`
	ContractTypes   []string `json:"contract_types,omitempty"`
}

// Input is one text to classify plus its attributes.
type Input struct {
	Text       string     `json:"text"`
	Attributes Attributes `json:"attributes"`
}

// MatchOptions tune a match call.
type MatchOptions struct {
	Limit           int                `json:"limit,omitempty"`
	WeightOverrides map[string]float64 `json:"weight_overrides,omitempty"`
}

// Severity of a blocking factor.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Blocking factor types.
const (
	BlockSectorIncompatibility = "sector_incompatibility"
	BlockJobIncompatibility    = "job_incompatibility"
	BlockExperienceIrrelevance = "experience_irrelevance"
	BlockCriticalSkillsMissing = "critical_skills_missing"
	BlockExperienceLevelGap    = "experience_level_gap"
)

// BlockingFactor is a named reason a match score is suppressed.
type BlockingFactor struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// FactorScores is the per-factor breakdown of a match, each in [0,1].
// Location and Contract are nil when the attributes did not allow computing them.
type FactorScores struct {
	Compatibility float64  `json:"compatibility"`
	Experience    *float64 `json:"experience,omitempty"`
	Skills        float64  `json:"skills"`
	Location      *float64 `json:"location,omitempty"`
	Contract      *float64 `json:"contract,omitempty"`
}

// Compatibility resolution sources.
const (
	SourceExactPair          = "exact_pair"
	SourceReversePair        = "reverse_pair"
	SourceSelfPair           = "self_pair"
	SourceSameSectorDefault  = "same_sector_default"
	SourceCrossSectorDefault = "cross_sector_default"
	SourceJobOverride        = "job_override"
)

// CompatibilityResolution records how a compatibility coefficient was obtained.
type CompatibilityResolution struct {
	Coefficient float64 `json:"coefficient"`
	Source      string  `json:"source"`
	Reason      string  `json:"reason,omitempty"`
}

// Transition types.
const (
	TransitionSameJob       = "same_job"
	TransitionSameSubSector = "same_sub_sector"
	TransitionSameSector    = "same_sector"
	TransitionCrossSector   = "cross_sector"
	TransitionUnknown       = "unknown"
)

// Transition describes the career move a match implies.
type Transition struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

// MatchResult is the score of one candidate against one job.
type MatchResult struct {
	JobIndex        int                     `json:"job_index"`
	Score           int                     `json:"score"`
	Factors         FactorScores            `json:"factors"`
	Weights         map[string]float64      `json:"weights"`
	Compatibility   CompatibilityResolution `json:"compatibility"`
	BlockingFactors []BlockingFactor        `json:"blocking_factors"`
	Recommendations []string                `json:"recommendations"`
	Transition      Transition              `json:"transition"`
	Explanation     string                  `json:"explanation"`
	Candidate       *Classification         `json:"candidate"`
	Job             *Classification         `json:"job"`
}

// Blocked reports whether any blocking factor fired.
func (m *MatchResult) Blocked() bool {
	return len(m.BlockingFactors) > 0
}

// HasBlockingFactor reports whether a blocking factor of the given type fired.
func (m *MatchResult) HasBlockingFactor(factorType string) bool {
	for _, bf := range m.BlockingFactors {
		if bf.Type == factorType {
			return true
		}
	}
	return false
}
