package taxonomy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/rules"
	"github.com/jonathan/job-matcher/internal/schemas"
	"github.com/jonathan/job-matcher/internal/types"
)

//go:embed data/taxonomy.json
var defaultTaxonomy []byte

//go:embed data/taxonomy.schema.json
var taxonomySchema []byte

// Schema returns the JSON Schema every taxonomy artifact must satisfy.
func Schema() []byte {
	return taxonomySchema
}

var loadDefault = sync.OnceValues(func() (*Registry, error) {
	return Load(defaultTaxonomy)
})

// Default returns the registry built from the embedded taxonomy. It is loaded once per process.
func Default() (*Registry, error) {
	return loadDefault()
}

// LoadFile reads and loads a taxonomy artifact from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TaxonomyError{Message: fmt.Sprintf("failed to read %s", path), Cause: err}
	}
	return Load(data)
}

// Load validates a taxonomy artifact against the schema, checks its internal consistency and
// builds an immutable Registry. Every failure is a *TaxonomyError.
func Load(data []byte) (*Registry, error) {
	if err := schemas.ValidateBytes("taxonomy", taxonomySchema, data); err != nil {
		return nil, &TaxonomyError{Message: "artifact does not match the taxonomy schema", Cause: err}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &TaxonomyError{Message: "failed to decode artifact", Cause: err}
	}

	b := &builder{reg: newRegistry(doc.Version, doc.Language)}
	steps := []func(*document) error{
		b.sectors,
		b.subSectors,
		b.jobs,
		b.overrides,
		b.compatibility,
		b.exclusionRules,
		b.contextLevels,
	}
	for _, step := range steps {
		if err := step(&doc); err != nil {
			return nil, err
		}
	}
	b.reg.index()
	return b.reg, nil
}

type builder struct {
	reg *Registry
}

func (b *builder) sectors(doc *document) error {
	for i, s := range doc.Sectors {
		path := fmt.Sprintf("sectors.%d", i)
		if _, dup := b.reg.sectorIdx[s.ID]; dup {
			return &TaxonomyError{Path: path, Message: fmt.Sprintf("duplicate sector id %q", s.ID)}
		}
		keywords, err := normalizeTerms(path+".keywords", s.Keywords, parsing.Normalize)
		if err != nil {
			return err
		}
		sector := &Sector{ID: s.ID, Label: s.Label, Keywords: keywords, Order: i}
		b.reg.sectors = append(b.reg.sectors, sector)
		b.reg.sectorIdx[s.ID] = sector
	}
	return nil
}

func (b *builder) subSectors(doc *document) error {
	for i, s := range doc.SubSectors {
		path := fmt.Sprintf("sub_sectors.%d", i)
		if _, dup := b.reg.subSectorIdx[s.ID]; dup {
			return &TaxonomyError{Path: path, Message: fmt.Sprintf("duplicate sub-sector id %q", s.ID)}
		}
		if _, ok := b.reg.sectorIdx[s.Sector]; !ok {
			return &TaxonomyError{Path: path + ".sector", Message: fmt.Sprintf("unknown sector %q", s.Sector)}
		}
		sub := &SubSector{ID: s.ID, Sector: s.Sector, Label: s.Label, Order: i}
		b.reg.subSectors = append(b.reg.subSectors, sub)
		b.reg.subSectorIdx[s.ID] = sub
	}
	return nil
}

func (b *builder) jobs(doc *document) error {
	for i, j := range doc.Jobs {
		path := fmt.Sprintf("jobs.%d", i)
		if _, dup := b.reg.jobIdx[j.ID]; dup {
			return &TaxonomyError{Path: path, Message: fmt.Sprintf("duplicate job id %q", j.ID)}
		}

		sub, ok := b.reg.subSectorIdx[j.SubSector]
		if !ok {
			return &TaxonomyError{Path: path + ".sub_sector", Message: fmt.Sprintf("unknown sub-sector %q", j.SubSector)}
		}
		if j.Sector != "" && j.Sector != sub.Sector {
			return &TaxonomyError{
				Path:    path + ".sector",
				Message: fmt.Sprintf("sector %q disagrees with sub-sector %q (sector %q)", j.Sector, sub.ID, sub.Sector),
			}
		}

		job, err := buildJob(path, j)
		if err != nil {
			return err
		}
		job.Sector = sub.Sector
		job.Order = i

		b.reg.jobs = append(b.reg.jobs, job)
		b.reg.jobIdx[job.ID] = job
	}
	return nil
}

func buildJob(path string, j jobDoc) (*JobDefinition, error) {
	keywords, err := normalizeTerms(path+".keywords", j.Keywords, parsing.Normalize)
	if err != nil {
		return nil, err
	}
	required, err := normalizeSet(path+".required_combinations", j.RequiredCombinations)
	if err != nil {
		return nil, err
	}
	exclude, err := normalizeSet(path+".exclude_combinations", j.ExcludeCombinations)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 && len(exclude) > 0 {
		return nil, &TaxonomyError{
			Path:    path,
			Message: "exclude combinations require at least one required combination",
		}
	}
	if len(keywords) == 0 && len(required) == 0 {
		return nil, &TaxonomyError{Path: path, Message: "job has neither keywords nor required combinations and can never be detected"}
	}

	skills, err := normalizeTerms(path+".skills", j.Skills, parsing.NormalizeSkillName)
	if err != nil {
		return nil, err
	}
	critical, err := normalizeTerms(path+".critical_skills", j.CriticalSkills, parsing.NormalizeSkillName)
	if err != nil {
		return nil, err
	}
	for _, c := range critical {
		if !contains(skills, c) {
			return nil, &TaxonomyError{Path: path + ".critical_skills", Message: fmt.Sprintf("critical skill %q is not among the job skills", c)}
		}
	}

	levels, err := normalizeLevels(path+".levels", j.Levels)
	if err != nil {
		return nil, err
	}

	overrides := make([]Override, 0, len(j.IncompatibleWith))
	for k, o := range j.IncompatibleWith {
		if o.Job == j.ID {
			return nil, &TaxonomyError{Path: fmt.Sprintf("%s.incompatible_with.%d", path, k), Message: "a job cannot override its own compatibility"}
		}
		overrides = append(overrides, Override(o))
	}

	job := &JobDefinition{
		ID:             j.ID,
		Label:          j.Label,
		SubSector:      j.SubSector,
		Keywords:       keywords,
		Required:       required,
		Exclude:        exclude,
		Skills:         skills,
		CriticalSkills: critical,
		Levels:         levels,
		Overrides:      overrides,
	}
	job.buildVocabulary()
	return job, nil
}

func (b *builder) overrides(doc *document) error {
	for i, j := range doc.Jobs {
		for k, o := range j.IncompatibleWith {
			if _, ok := b.reg.jobIdx[o.Job]; !ok {
				return &TaxonomyError{
					Path:    fmt.Sprintf("jobs.%d.incompatible_with.%d", i, k),
					Message: fmt.Sprintf("unknown job %q", o.Job),
				}
			}
		}
	}
	return nil
}

func (b *builder) compatibility(doc *document) error {
	c := doc.Compatibility
	if !inUnitRange(c.SameSectorDefault) || !inUnitRange(c.CrossSectorDefault) {
		return &TaxonomyError{Path: "compatibility", Message: "defaults must be within [0,1]"}
	}

	table := CompatibilityTable{
		SameSectorDefault:  c.SameSectorDefault,
		CrossSectorDefault: c.CrossSectorDefault,
	}
	seen := make(map[[2]string]bool)
	for i, e := range c.Entries {
		path := fmt.Sprintf("compatibility.entries.%d", i)
		for _, id := range []string{e.From, e.To} {
			if _, ok := b.reg.subSectorIdx[id]; !ok {
				return &TaxonomyError{Path: path, Message: fmt.Sprintf("unknown sub-sector %q", id)}
			}
		}
		if !inUnitRange(e.Coefficient) {
			return &TaxonomyError{Path: path + ".coefficient", Message: "coefficient must be within [0,1]"}
		}
		key := [2]string{e.From, e.To}
		if seen[key] {
			return &TaxonomyError{Path: path, Message: fmt.Sprintf("duplicate entry %s -> %s", e.From, e.To)}
		}
		seen[key] = true
		table.Entries = append(table.Entries, CompatibilityEntry(e))
	}
	b.reg.compat = table
	return nil
}

func (b *builder) exclusionRules(doc *document) error {
	for i, r := range doc.ExclusionRules {
		path := fmt.Sprintf("exclusion_rules.%d", i)
		when, err := normalizeSet(path+".when", r.When)
		if err != nil {
			return err
		}
		if len(when) == 0 {
			return &TaxonomyError{Path: path + ".when", Message: "rule has no condition"}
		}
		for _, s := range r.ExcludeSectors {
			if _, ok := b.reg.sectorIdx[s]; !ok {
				return &TaxonomyError{Path: path + ".exclude_sectors", Message: fmt.Sprintf("unknown sector %q", s)}
			}
		}
		b.reg.exclusions = append(b.reg.exclusions, ExclusionRule{
			ID:             r.ID,
			When:           when,
			ExcludeSectors: r.ExcludeSectors,
			Reason:         r.Reason,
		})
	}
	return nil
}

func (b *builder) contextLevels(doc *document) error {
	for name, levels := range doc.ContextLevelIndicators {
		ctx, err := types.ParseContext(name)
		if err != nil || name == "" {
			return &TaxonomyError{Path: "context_level_indicators", Message: fmt.Sprintf("unknown context %q", name)}
		}
		normalized, err := normalizeLevels("context_level_indicators."+name, levels)
		if err != nil {
			return err
		}
		b.reg.contextLevels[ctx] = normalized
	}
	return nil
}

func normalizeLevels(path string, levels []levelsDoc) ([]LevelIndicators, error) {
	result := make([]LevelIndicators, 0, len(levels))
	for i, l := range levels {
		lp := fmt.Sprintf("%s.%d", path, i)
		if !types.IsLevel(l.Level) {
			return nil, &TaxonomyError{Path: lp + ".level", Message: fmt.Sprintf("unknown level %q", l.Level)}
		}
		indicators, err := normalizeTerms(lp+".indicators", l.Indicators, parsing.Normalize)
		if err != nil {
			return nil, err
		}
		result = append(result, LevelIndicators{Level: l.Level, Indicators: indicators})
	}
	return result, nil
}

func normalizeSet(path string, groups [][]string) (rules.Set, error) {
	set := make(rules.Set, 0, len(groups))
	for i, g := range groups {
		gp := fmt.Sprintf("%s.%d", path, i)
		if len(g) == 0 {
			return nil, &TaxonomyError{Path: gp, Message: "empty combination group"}
		}
		terms, err := normalizeTerms(gp, g, parsing.Normalize)
		if err != nil {
			return nil, err
		}
		set = append(set, rules.Group(terms))
	}
	return set, nil
}

// normalizeTerms normalizes and deduplicates terms, rejecting any that normalize to nothing.
func normalizeTerms(path string, terms []string, normalize func(string) string) ([]string, error) {
	result := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for i, t := range terms {
		n := normalize(t)
		if n == "" {
			return nil, &TaxonomyError{Path: fmt.Sprintf("%s.%d", path, i), Message: fmt.Sprintf("term %q normalizes to nothing", t)}
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result, nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
