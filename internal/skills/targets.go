// Package skills builds the skill targets a job expects and the skill set a candidate shows,
// and measures the overlap between the two.
package skills

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/job-matcher/internal/parsing"
	"github.com/jonathan/job-matcher/internal/taxonomy"
	"github.com/jonathan/job-matcher/internal/types"
)

const (
	// Weight constants for skill sources
	weightAttribute = 1.0
	weightMentioned = 1.0
	weightTaxonomy  = 1.0

	// Source constants
	sourceAttribute = "attribute"
	sourceMentioned = "mentioned"
	sourceTaxonomy  = "taxonomy"

	// Credit for a skill that only partially matches
	partialCredit = 0.5
	// minPartialRunes is the shortest name eligible for partial matching
	minPartialRunes = 4
)

// BuildSkillTargets builds the skills a job expects, in first-seen order.
//
// Explicit attribute skills win. Otherwise the classified job's taxonomy skills that the job text
// mentions are used, or all of them when the text mentions none. Critical skills come from the
// attributes or, failing that, from the taxonomy, and are always part of the targets.
// job and doc may be nil.
func BuildSkillTargets(attrs types.Attributes, job *taxonomy.JobDefinition, doc *parsing.Document) *types.SkillTargets {
	skillMap := make(map[string]*skillInfo)
	var order []string

	add := func(name string, weight float64, source string, critical bool) {
		if name == "" {
			return
		}
		if _, exists := skillMap[name]; !exists {
			order = append(order, name)
		}
		addOrUpdateSkill(skillMap, name, weight, source, critical)
	}

	for _, s := range parsing.NormalizeSkills(attrs.Skills) {
		add(s, weightAttribute, sourceAttribute, false)
	}

	if len(skillMap) == 0 && job != nil {
		for _, s := range job.Skills {
			if doc != nil && doc.Contains(s) {
				add(s, weightMentioned, sourceMentioned, false)
			}
		}
		if len(skillMap) == 0 {
			for _, s := range job.Skills {
				add(s, weightTaxonomy, sourceTaxonomy, false)
			}
		}
	}

	critical := parsing.NormalizeSkills(attrs.CriticalSkills)
	criticalSource := sourceAttribute
	if len(critical) == 0 && job != nil {
		critical = job.CriticalSkills
		criticalSource = sourceTaxonomy
	}
	for _, s := range critical {
		add(s, weightAttribute, criticalSource, true)
	}

	targets := &types.SkillTargets{Skills: make([]types.Skill, 0, len(order))}
	for _, name := range order {
		info := skillMap[name]
		targets.Skills = append(targets.Skills, types.Skill{
			Name:     name,
			Weight:   info.weight,
			Source:   info.source,
			Critical: info.critical,
		})
	}
	return targets
}

// CandidateSkills returns the normalized skills a candidate shows: explicit attribute skills
// followed by every vocabulary skill the text mentions.
func CandidateSkills(attrs types.Attributes, vocabulary []string, doc *parsing.Document) []string {
	have := parsing.NormalizeSkills(attrs.Skills)
	seen := make(map[string]bool, len(have))
	for _, s := range have {
		seen[s] = true
	}
	if doc == nil {
		return have
	}
	for _, s := range vocabulary {
		if !seen[s] && doc.Contains(s) {
			seen[s] = true
			have = append(have, s)
		}
	}
	return have
}

// Credit scores one target skill against a skill set: 1 for an exact match, 0.5 when one
// name contains the other and both are at least four runes long, 0 otherwise.
func Credit(target string, have []string) float64 {
	best := 0.0
	for _, h := range have {
		if h == target {
			return 1
		}
		if partialMatch(target, h) {
			best = partialCredit
		}
	}
	return best
}

// Overlap returns the weighted share of targets covered by have. ok is false when there are no
// targets to cover.
func Overlap(targets []types.Skill, have []string) (ratio float64, ok bool) {
	var total, covered float64
	for _, t := range targets {
		total += t.Weight
		covered += t.Weight * Credit(t.Name, have)
	}
	if total == 0 {
		return 0, false
	}
	return covered / total, true
}

// Missing returns the targets that earn no credit at all against have.
func Missing(targets []types.Skill, have []string) []string {
	var missing []string
	for _, t := range targets {
		if Credit(t.Name, have) == 0 {
			missing = append(missing, t.Name)
		}
	}
	return missing
}

func partialMatch(a, b string) bool {
	if utf8.RuneCountInString(a) < minPartialRunes || utf8.RuneCountInString(b) < minPartialRunes {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// skillInfo holds temporary information about a skill during building
type skillInfo struct {
	weight   float64
	source   string
	critical bool
}

// addOrUpdateSkill adds a skill to the map or updates it if it exists,
// taking the maximum weight when duplicates are found.
func addOrUpdateSkill(skillMap map[string]*skillInfo, skillName string, weight float64, source string, critical bool) {
	existing, exists := skillMap[skillName]
	if !exists {
		skillMap[skillName] = &skillInfo{weight: weight, source: source, critical: critical}
		return
	}

	existing.critical = existing.critical || critical
	if weight > existing.weight {
		existing.weight = weight
		existing.source = source
	}
	// If weights are equal, prioritize source by: attribute > mentioned > taxonomy
	if weight == existing.weight && getSourcePriority(source) > getSourcePriority(existing.source) {
		existing.source = source
	}
}

// getSourcePriority returns a numeric priority for source types.
// Higher numbers indicate higher priority.
func getSourcePriority(source string) int {
	switch source {
	case sourceAttribute:
		return 3
	case sourceMentioned:
		return 2
	case sourceTaxonomy:
		return 1
	default:
		return 0
	}
}
