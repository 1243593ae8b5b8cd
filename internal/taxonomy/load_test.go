package taxonomy_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/schemas"
	"github.com/jonathan/job-matcher/internal/taxonomy"
	"github.com/jonathan/job-matcher/internal/taxonomy/taxonomytest"
)

// mutate decodes the fixture, applies fn and re-encodes it.
func mutate(t *testing.T, fn func(doc map[string]any)) []byte {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(taxonomytest.Fixture), &doc))
	fn(doc)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func job(doc map[string]any, i int) map[string]any {
	return doc["jobs"].([]any)[i].(map[string]any)
}

func TestLoad_Fixture(t *testing.T) {
	reg, err := taxonomy.Load([]byte(taxonomytest.Fixture))
	require.NoError(t, err)

	assert.Equal(t, "test-1", reg.Version())
	assert.Equal(t, "fr", reg.Language())
	assert.Equal(t, 3, reg.Len())

	payroll, err := reg.Lookup("gestionnaire_paie")
	require.NoError(t, err)
	assert.Equal(t, "finance", payroll.Sector, "sector is derived from the sub-sector")
	assert.Equal(t, 0, payroll.Order)
	assert.Equal(t, []string{"paie", "bulletin de paie"}, payroll.Keywords)
	assert.Equal(t, []string{"dsn"}, payroll.CriticalSkills)
}

func TestLoad_NormalizesTerms(t *testing.T) {
	reg := taxonomytest.Registry(t)

	finance, err := reg.Sector("finance")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "comptabilite", "tresorerie"}, finance.Keywords)

	levels := reg.ContextLevels("posting")
	require.Len(t, levels, 2)
	assert.Equal(t, []string{"junior", "premiere experience"}, levels[1].Indicators)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(doc map[string]any)
		wantMsg string
	}{
		{
			name: "duplicate job id",
			mutate: func(doc map[string]any) {
				job(doc, 1)["id"] = "gestionnaire_paie"
			},
			wantMsg: "duplicate job id",
		},
		{
			name: "duplicate sector id",
			mutate: func(doc map[string]any) {
				sectors := doc["sectors"].([]any)
				sectors[1].(map[string]any)["id"] = "finance"
			},
			wantMsg: "duplicate sector id",
		},
		{
			name: "duplicate sub-sector id",
			mutate: func(doc map[string]any) {
				subs := doc["sub_sectors"].([]any)
				subs[1].(map[string]any)["id"] = "paie"
			},
			wantMsg: "duplicate sub-sector id",
		},
		{
			name: "exclude without required",
			mutate: func(doc map[string]any) {
				job(doc, 0)["required_combinations"] = []any{}
			},
			wantMsg: "exclude combinations require",
		},
		{
			name: "empty combination group",
			mutate: func(doc map[string]any) {
				job(doc, 1)["required_combinations"] = []any{[]any{}}
			},
			wantMsg: "empty combination group",
		},
		{
			name: "undetectable job",
			mutate: func(doc map[string]any) {
				j := job(doc, 1)
				j["keywords"] = []any{}
				j["required_combinations"] = []any{}
			},
			wantMsg: "can never be detected",
		},
		{
			name: "unknown sub-sector",
			mutate: func(doc map[string]any) {
				job(doc, 1)["sub_sector"] = "nowhere"
			},
			wantMsg: "unknown sub-sector",
		},
		{
			name: "sector disagrees with sub-sector",
			mutate: func(doc map[string]any) {
				job(doc, 2)["sector"] = "finance"
			},
			wantMsg: "disagrees",
		},
		{
			name: "sub-sector with unknown sector",
			mutate: func(doc map[string]any) {
				subs := doc["sub_sectors"].([]any)
				subs[0].(map[string]any)["sector"] = "nowhere"
			},
			wantMsg: "unknown sector",
		},
		{
			name: "compatibility entry with unknown sub-sector",
			mutate: func(doc map[string]any) {
				c := doc["compatibility"].(map[string]any)
				c["entries"] = []any{map[string]any{"from": "paie", "to": "nowhere", "coefficient": 0.5}}
			},
			wantMsg: "unknown sub-sector",
		},
		{
			name: "duplicate compatibility entry",
			mutate: func(doc map[string]any) {
				c := doc["compatibility"].(map[string]any)
				entry := map[string]any{"from": "paie", "to": "facturation", "coefficient": 0.5}
				c["entries"] = []any{entry, entry}
			},
			wantMsg: "duplicate entry",
		},
		{
			name: "override of unknown job",
			mutate: func(doc map[string]any) {
				job(doc, 0)["incompatible_with"] = []any{map[string]any{"job": "ghost", "coefficient": 0.1}}
			},
			wantMsg: "unknown job",
		},
		{
			name: "override of itself",
			mutate: func(doc map[string]any) {
				job(doc, 0)["incompatible_with"] = []any{map[string]any{"job": "gestionnaire_paie", "coefficient": 0.1}}
			},
			wantMsg: "its own compatibility",
		},
		{
			name: "exclusion rule with unknown sector",
			mutate: func(doc map[string]any) {
				rules := doc["exclusion_rules"].([]any)
				rules[0].(map[string]any)["exclude_sectors"] = []any{"nowhere"}
			},
			wantMsg: "unknown sector",
		},
		{
			name: "critical skill outside skills",
			mutate: func(doc map[string]any) {
				job(doc, 0)["critical_skills"] = []any{"urssaf"}
			},
			wantMsg: "not among the job skills",
		},
		{
			name: "keyword normalizes to nothing",
			mutate: func(doc map[string]any) {
				job(doc, 1)["keywords"] = []any{"--"}
			},
			wantMsg: "normalizes to nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := taxonomy.Load(mutate(t, tt.mutate))
			require.Error(t, err)

			var taxErr *taxonomy.TaxonomyError
			require.True(t, errors.As(err, &taxErr), "error should be TaxonomyError type")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{
			name:   "unknown level",
			mutate: func(doc map[string]any) { job(doc, 1)["levels"] = []any{map[string]any{"level": "intern", "indicators": []any{"stagiaire"}}} },
		},
		{
			name:   "coefficient out of range",
			mutate: func(doc map[string]any) { doc["compatibility"].(map[string]any)["cross_sector_default"] = 1.5 },
		},
		{
			name:   "missing version",
			mutate: func(doc map[string]any) { delete(doc, "version") },
		},
		{
			name:   "unknown top-level key",
			mutate: func(doc map[string]any) { doc["extra"] = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := taxonomy.Load(mutate(t, tt.mutate))
			require.Error(t, err)

			var taxErr *taxonomy.TaxonomyError
			require.True(t, errors.As(err, &taxErr))
			var validationErr *schemas.ValidationError
			assert.True(t, errors.As(err, &validationErr), "schema failures wrap a ValidationError")
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	_, err := taxonomy.Load([]byte(`{"version": `))
	require.Error(t, err)

	var taxErr *taxonomy.TaxonomyError
	assert.True(t, errors.As(err, &taxErr))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.json")
	require.NoError(t, os.WriteFile(path, []byte(taxonomytest.Fixture), 0o600))

	reg, err := taxonomy.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	_, err = taxonomy.LoadFile(filepath.Join(dir, "missing.json"))
	var taxErr *taxonomy.TaxonomyError
	assert.True(t, errors.As(err, &taxErr))
}

func TestDefault(t *testing.T) {
	reg, err := taxonomy.Default()
	require.NoError(t, err)

	assert.Equal(t, "3.0.0", reg.Version())
	assert.Len(t, reg.Sectors(), 6)
	assert.Len(t, reg.AllSubSectors(), 11)
	assert.Equal(t, 21, reg.Len())

	again, err := taxonomy.Default()
	require.NoError(t, err)
	assert.Same(t, reg, again, "default registry is loaded once")
}
