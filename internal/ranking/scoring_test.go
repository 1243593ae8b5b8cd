package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/types"
)

func ptr(v float64) *float64 { return &v }

func TestComputeCompatibilityFactor(t *testing.T) {
	tests := []struct {
		name       string
		base       float64
		cand, job  float64
		strictness float64
		want       float64
	}{
		{"identical jobs stay at one", 1.0, 0.9, 0.9, 0.5, 1.0},
		{"generalists keep the base", 0.6, 0, 0, 0.5, 0.6},
		{"specialists are penalized", 0.6, 1, 1, 0.5, 0.6 * (1 - 0.5*0.4)},
		{"no strictness", 0.3, 1, 1, 0, 0.3},
		{"zero base", 0, 1, 1, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeCompatibilityFactor(tt.base, tt.cand, tt.job, tt.strictness)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExperienceBase(t *testing.T) {
	tests := []struct {
		name     string
		years    *float64
		required *float64
		want     float64
	}{
		{"no experience", ptr(0), nil, 0.2},
		{"two years", ptr(2), nil, 0.5},
		{"five years", ptr(5), nil, 0.8},
		{"seasoned", ptr(12), nil, 1.0},
		{"half the requirement", ptr(2), ptr(4), 0.5},
		{"requirement exceeded", ptr(10), ptr(4), 1.0},
		{"zero requirement falls back to steps", ptr(1), ptr(0), 0.5},
		{"negative years count as none", ptr(-3), nil, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, experienceBase(tt.years, tt.required), 1e-9)
		})
	}
}

func TestLevelMultiplier(t *testing.T) {
	tests := []struct {
		cand, job string
		want      float64
	}{
		{types.LevelSenior, types.LevelSenior, 1.0},
		{types.LevelConfirmed, types.LevelSenior, 0.85},
		{types.LevelSenior, types.LevelConfirmed, 0.85},
		{types.LevelJunior, types.LevelSenior, 0.65},
		{types.LevelJunior, types.LevelExpert, 0.40},
		{types.LevelUnspecified, types.LevelExpert, 1.0},
		{"", types.LevelJunior, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.cand+"->"+tt.job, func(t *testing.T) {
			assert.InDelta(t, tt.want, levelMultiplier(tt.cand, tt.job), 1e-9)
		})
	}
}

func TestComputeLocationFactor(t *testing.T) {
	tests := []struct {
		name      string
		cand, job types.Attributes
		want      *float64
	}{
		{"missing candidate location", types.Attributes{}, types.Attributes{Location: "Paris"}, nil},
		{"same city", types.Attributes{Location: "Paris"}, types.Attributes{Location: "paris"}, ptr(1.0)},
		{"remote job", types.Attributes{Location: "Lyon"}, types.Attributes{Location: "Paris", Remote: true}, ptr(1.0)},
		{"shared token", types.Attributes{Location: "Paris 15e"}, types.Attributes{Location: "Paris La Défense"}, ptr(0.8)},
		{"elsewhere", types.Attributes{Location: "Lyon"}, types.Attributes{Location: "Nantes"}, ptr(0.6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeLocationFactor(tt.cand, tt.job)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestComputeContractFactor(t *testing.T) {
	cand := types.Attributes{ContractTypes: []string{"CDI", "Freelance"}}

	got := computeContractFactor(cand, types.Attributes{ContractType: "cdi"})
	require.NotNil(t, got)
	assert.InDelta(t, 1.0, *got, 1e-9)

	got = computeContractFactor(cand, types.Attributes{ContractType: "CDD"})
	require.NotNil(t, got)
	assert.InDelta(t, 0.3, *got, 1e-9)

	assert.Nil(t, computeContractFactor(types.Attributes{}, types.Attributes{ContractType: "CDI"}))
	assert.Nil(t, computeContractFactor(cand, types.Attributes{}))
}

func TestFinalScore(t *testing.T) {
	w := DefaultWeights()

	score, applied := finalScore(types.FactorScores{Compatibility: 1, Experience: ptr(1), Skills: 1}, w)
	assert.Equal(t, 100, score)
	assert.InDelta(t, 0.35/0.9, applied[FactorCompatibility], 1e-9)
	assert.NotContains(t, applied, FactorLocation, "absent factors are not weighted")

	score, applied = finalScore(types.FactorScores{Compatibility: 1, Experience: ptr(1), Skills: 1, Location: ptr(0)}, w)
	assert.Equal(t, 95, score)
	assert.InDelta(t, 0.05/0.95, applied[FactorLocation], 1e-9)

	score, _ = finalScore(types.FactorScores{Compatibility: 0.5, Experience: ptr(0.5), Skills: 0.5}, w)
	assert.Equal(t, 50, score)

	score, applied = finalScore(types.FactorScores{Compatibility: 1, Skills: 1}, w)
	assert.Equal(t, 100, score, "unknown experience does not pull the score down")
	assert.NotContains(t, applied, FactorExperience)
	assert.InDelta(t, 0.5, applied[FactorSkills], 1e-9)

	score, _ = finalScore(types.FactorScores{Compatibility: 0.4, Skills: 0.8}, w)
	assert.Equal(t, 60, score)
}

func TestComputeExperienceFactor(t *testing.T) {
	confirmed := &types.Classification{PrimarySector: "finance", SpecificJob: "gestionnaire_paie", JobLevel: types.LevelConfirmed}
	senior := &types.Classification{PrimarySector: "finance", SpecificJob: "gestionnaire_paie", JobLevel: types.LevelSenior}

	tests := []struct {
		name          string
		cand, job     Profile
		compatibility float64
		want          *float64
	}{
		{
			name:          "unknown years leave the factor out",
			cand:          Profile{Classification: confirmed},
			job:           Profile{Classification: confirmed},
			compatibility: 1,
			want:          nil,
		},
		{
			name:          "seasoned on the same level",
			cand:          Profile{Classification: confirmed, Attributes: types.Attributes{YearsExperience: ptr(6)}},
			job:           Profile{Classification: confirmed},
			compatibility: 1,
			want:          ptr(1),
		},
		{
			name:          "one level apart",
			cand:          Profile{Classification: confirmed, Attributes: types.Attributes{YearsExperience: ptr(6)}},
			job:           Profile{Classification: senior},
			compatibility: 1,
			want:          ptr(0.85),
		},
		{
			name:          "unclassified job",
			cand:          Profile{Classification: confirmed, Attributes: types.Attributes{YearsExperience: ptr(6)}},
			job:           Profile{Classification: &types.Classification{}},
			compatibility: 0.3,
			want:          ptr(0),
		},
		{
			name:          "scaled by compatibility",
			cand:          Profile{Classification: confirmed, Attributes: types.Attributes{YearsExperience: ptr(2)}},
			job:           Profile{Classification: confirmed, Attributes: types.Attributes{YearsExperience: ptr(4)}},
			compatibility: 0.4,
			want:          ptr(0.2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeExperienceFactor(tt.cand, tt.job, tt.compatibility)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestSpecialization(t *testing.T) {
	assert.InDelta(t, 0.4, specialization(&types.Classification{PrimarySector: "finance", SpecializationScore: 0.4}), 1e-9)
	assert.InDelta(t, 1.0, specialization(&types.Classification{}), 1e-9)
	assert.InDelta(t, 1.0, specialization(nil), 1e-9)
}

func TestComputeSkillsFactor(t *testing.T) {
	job := Profile{Targets: &types.SkillTargets{Skills: []types.Skill{
		{Name: "dsn", Weight: 1},
		{Name: "sage paie", Weight: 1},
	}}}

	assert.InDelta(t, 0.75, computeSkillsFactor(Profile{Skills: []string{"dsn", "sage"}}, job), 1e-9)
	assert.InDelta(t, 0.0, computeSkillsFactor(Profile{}, job), 1e-9)

	classified := Profile{Classification: &types.Classification{PrimarySector: "finance", SpecificJob: "gestionnaire_paie"}}
	assert.InDelta(t, 1.0, computeSkillsFactor(Profile{}, classified), 1e-9, "a job without skills is a full match")

	sectorOnly := Profile{Classification: &types.Classification{PrimarySector: "finance"}}
	assert.InDelta(t, 0.0, computeSkillsFactor(Profile{Skills: []string{"dsn"}}, sectorOnly), 1e-9)
	assert.InDelta(t, 0.0, computeSkillsFactor(Profile{Skills: []string{"dsn"}}, Profile{}), 1e-9)
}
