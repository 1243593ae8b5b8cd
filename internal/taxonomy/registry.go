package taxonomy

import (
	"github.com/jonathan/job-matcher/internal/types"
)

// Registry is an immutable, loaded taxonomy. It is safe for concurrent use.
// Slices returned by its accessors are shared and must not be modified.
type Registry struct {
	version  string
	language string

	sectors      []*Sector
	sectorIdx    map[string]*Sector
	subSectors   []*SubSector
	subSectorIdx map[string]*SubSector
	jobs         []*JobDefinition
	jobIdx       map[string]*JobDefinition

	jobsBySubSector    map[string][]*JobDefinition
	subSectorsBySector map[string][]*SubSector
	subSectorVocab     map[string][]string
	skillVocab         []string

	compat        CompatibilityTable
	exclusions    []ExclusionRule
	contextLevels map[types.Context][]LevelIndicators
}

func newRegistry(version, language string) *Registry {
	return &Registry{
		version:            version,
		language:           language,
		sectorIdx:          make(map[string]*Sector),
		subSectorIdx:       make(map[string]*SubSector),
		jobIdx:             make(map[string]*JobDefinition),
		jobsBySubSector:    make(map[string][]*JobDefinition),
		subSectorsBySector: make(map[string][]*SubSector),
		subSectorVocab:     make(map[string][]string),
		contextLevels:      make(map[types.Context][]LevelIndicators),
	}
}

// index builds the derived lookups once every declaration has been validated.
func (r *Registry) index() {
	for _, sub := range r.subSectors {
		r.subSectorsBySector[sub.Sector] = append(r.subSectorsBySector[sub.Sector], sub)
	}

	seenVocab := make(map[string]map[string]bool)
	seenSkill := make(map[string]bool)
	for _, job := range r.jobs {
		r.jobsBySubSector[job.SubSector] = append(r.jobsBySubSector[job.SubSector], job)

		seen := seenVocab[job.SubSector]
		if seen == nil {
			seen = make(map[string]bool)
			seenVocab[job.SubSector] = seen
		}
		for _, term := range job.Vocabulary() {
			if !seen[term] {
				seen[term] = true
				r.subSectorVocab[job.SubSector] = append(r.subSectorVocab[job.SubSector], term)
			}
		}

		for _, skill := range job.Skills {
			if !seenSkill[skill] {
				seenSkill[skill] = true
				r.skillVocab = append(r.skillVocab, skill)
			}
		}
	}
}

// Version returns the taxonomy version string.
func (r *Registry) Version() string { return r.version }

// Language returns the language the keywords are authored in.
func (r *Registry) Language() string { return r.language }

// Len returns the number of jobs.
func (r *Registry) Len() int { return len(r.jobs) }

// Jobs returns every job in declaration order.
func (r *Registry) Jobs() []*JobDefinition { return r.jobs }

// Sectors returns every sector in declaration order.
func (r *Registry) Sectors() []*Sector { return r.sectors }

// Lookup returns the job with the given id.
func (r *Registry) Lookup(id string) (*JobDefinition, error) {
	job, ok := r.jobIdx[id]
	if !ok {
		return nil, &NotFoundError{Kind: "job", ID: id}
	}
	return job, nil
}

// Sector returns the sector with the given id.
func (r *Registry) Sector(id string) (*Sector, error) {
	sector, ok := r.sectorIdx[id]
	if !ok {
		return nil, &NotFoundError{Kind: "sector", ID: id}
	}
	return sector, nil
}

// SubSector returns the sub-sector with the given id.
func (r *Registry) SubSector(id string) (*SubSector, error) {
	sub, ok := r.subSectorIdx[id]
	if !ok {
		return nil, &NotFoundError{Kind: "sub-sector", ID: id}
	}
	return sub, nil
}

// SubSectors returns the sub-sectors of a sector in declaration order.
func (r *Registry) SubSectors(sector string) []*SubSector {
	return r.subSectorsBySector[sector]
}

// AllSubSectors returns every sub-sector in declaration order.
func (r *Registry) AllSubSectors() []*SubSector { return r.subSectors }

// JobsInSubSector returns the jobs of a sub-sector in declaration order.
func (r *Registry) JobsInSubSector(subSector string) []*JobDefinition {
	return r.jobsBySubSector[subSector]
}

// SubSectorVocabulary returns the union of the vocabularies of a sub-sector's jobs.
func (r *Registry) SubSectorVocabulary(subSector string) []string {
	return r.subSectorVocab[subSector]
}

// SkillVocabulary returns every distinct job skill, in declaration order.
func (r *Registry) SkillVocabulary() []string { return r.skillVocab }

// Compatibility returns the sub-sector compatibility table.
func (r *Registry) Compatibility() CompatibilityTable { return r.compat }

// ExclusionRules returns the global sector exclusion rules.
func (r *Registry) ExclusionRules() []ExclusionRule { return r.exclusions }

// ContextLevels returns the seniority vocabulary searched for a text context.
func (r *Registry) ContextLevels(ctx types.Context) []LevelIndicators {
	return r.contextLevels[ctx]
}

// SectorOf returns the sector id of a sub-sector, or "" when the sub-sector is unknown.
func (r *Registry) SectorOf(subSector string) string {
	if sub, ok := r.subSectorIdx[subSector]; ok {
		return sub.Sector
	}
	return ""
}
