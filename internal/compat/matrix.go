// Package compat resolves how transferable one job is to another, from the sub-sector
// compatibility table and the job-level overrides authored in the taxonomy.
package compat

import (
	"github.com/jonathan/job-matcher/internal/taxonomy"
	"github.com/jonathan/job-matcher/internal/types"
)

type pair struct {
	from, to string
}

// Matrix is an immutable compatibility lookup built from a registry.
type Matrix struct {
	reg     *taxonomy.Registry
	entries map[pair]float64
	same    float64
	cross   float64
}

// New indexes the registry's compatibility table.
func New(reg *taxonomy.Registry) *Matrix {
	table := reg.Compatibility()
	m := &Matrix{
		reg:     reg,
		entries: make(map[pair]float64, len(table.Entries)),
		same:    table.SameSectorDefault,
		cross:   table.CrossSectorDefault,
	}
	for _, e := range table.Entries {
		m.entries[pair{e.From, e.To}] = e.Coefficient
	}
	return m
}

// Compatibility returns the coefficient between two sub-sectors. It never fails: unknown
// sub-sectors resolve to the cross-sector default.
func (m *Matrix) Compatibility(from, to string) float64 {
	return m.lookup(from, to).Coefficient
}

func (m *Matrix) lookup(from, to string) types.CompatibilityResolution {
	if v, ok := m.entries[pair{from, to}]; ok {
		return types.CompatibilityResolution{Coefficient: v, Source: types.SourceExactPair}
	}
	if v, ok := m.entries[pair{to, from}]; ok {
		return types.CompatibilityResolution{Coefficient: v, Source: types.SourceReversePair}
	}

	fromSector, toSector := m.reg.SectorOf(from), m.reg.SectorOf(to)
	if from == to && fromSector != "" {
		return types.CompatibilityResolution{Coefficient: 1.0, Source: types.SourceSelfPair}
	}
	if fromSector != "" && fromSector == toSector {
		return types.CompatibilityResolution{Coefficient: m.same, Source: types.SourceSameSectorDefault}
	}
	return types.CompatibilityResolution{Coefficient: m.cross, Source: types.SourceCrossSectorDefault}
}

// Resolve returns the compatibility between a candidate and a job classification, including
// where the value came from. A job-level override tying the two jobs takes precedence over the
// sub-sector table.
func (m *Matrix) Resolve(cand, job *types.Classification) types.CompatibilityResolution {
	if cand.HasJob() && job.HasJob() {
		if o, ok := m.override(cand.SpecificJob, job.SpecificJob); ok {
			return types.CompatibilityResolution{
				Coefficient: o.Coefficient,
				Source:      types.SourceJobOverride,
				Reason:      o.Reason,
			}
		}
	}

	switch {
	case cand != nil && job != nil && cand.SubSector != "" && job.SubSector != "":
		return m.lookup(cand.SubSector, job.SubSector)
	case cand.HasSector() && job.HasSector() && cand.PrimarySector == job.PrimarySector:
		return types.CompatibilityResolution{Coefficient: m.same, Source: types.SourceSameSectorDefault}
	default:
		return types.CompatibilityResolution{Coefficient: m.cross, Source: types.SourceCrossSectorDefault}
	}
}

// override finds an override between two jobs, the candidate's declaration first.
func (m *Matrix) override(candJob, targetJob string) (taxonomy.Override, bool) {
	if def, err := m.reg.Lookup(candJob); err == nil {
		if o, ok := def.OverrideFor(targetJob); ok {
			return o, true
		}
	}
	if def, err := m.reg.Lookup(targetJob); err == nil {
		if o, ok := def.OverrideFor(candJob); ok {
			return o, true
		}
	}
	return taxonomy.Override{}, false
}
