package ranking

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-matcher/internal/skills"
	"github.com/jonathan/job-matcher/internal/types"
)

// detectBlockingFactors reports every blocking condition that holds for a scored pair,
// in a fixed order.
func (s *Scorer) detectBlockingFactors(cand, job Profile, res *types.MatchResult) []types.BlockingFactor {
	th := s.thresholds
	blocking := make([]types.BlockingFactor, 0)

	if res.Factors.Compatibility < th.SectorIncompatibility {
		blocking = append(blocking, types.BlockingFactor{
			Type:     types.BlockSectorIncompatibility,
			Severity: th.severity(types.BlockSectorIncompatibility),
			Description: fmt.Sprintf("%s and %s are largely incompatible (compatibility %d%%)",
				describe(cand.Classification), describe(job.Classification), percent(res.Factors.Compatibility)),
			Recommendation: "A major career change would be needed to bridge these fields",
		})
	}

	if res.Compatibility.Source == types.SourceJobOverride && res.Compatibility.Coefficient < th.JobIncompatibility {
		description := fmt.Sprintf("%s and %s are flagged as incompatible jobs",
			cand.Classification.SpecificJob, job.Classification.SpecificJob)
		if res.Compatibility.Reason != "" {
			description += ": " + res.Compatibility.Reason
		}
		blocking = append(blocking, types.BlockingFactor{
			Type:           types.BlockJobIncompatibility,
			Severity:       th.severity(types.BlockJobIncompatibility),
			Description:    description,
			Recommendation: "Consider dedicated training or a gradual move towards the target job",
		})
	}

	if exp := res.Factors.Experience; exp != nil && *exp < th.ExperienceIrrelevance {
		blocking = append(blocking, types.BlockingFactor{
			Type:           types.BlockExperienceIrrelevance,
			Severity:       th.severity(types.BlockExperienceIrrelevance),
			Description:    fmt.Sprintf("Experience carries little weight for this job (%d%%)", percent(*exp)),
			Recommendation: "Gain experience closer to the target job before applying",
		})
	}

	if overlap, ok := computeCriticalOverlap(cand, job); ok && overlap < th.CriticalSkills {
		missing := skills.Missing(job.Targets.Critical(), cand.Skills)
		blocking = append(blocking, types.BlockingFactor{
			Type:           types.BlockCriticalSkillsMissing,
			Severity:       th.severity(types.BlockCriticalSkillsMissing),
			Description:    fmt.Sprintf("Critical skills missing: %s", strings.Join(missing, ", ")),
			Recommendation: "Acquire the critical skills listed for this job",
		})
	}

	if gap, ok := levelGap(cand.level(), job.level()); ok && gap > th.MaxLevelGap {
		blocking = append(blocking, types.BlockingFactor{
			Type:     types.BlockExperienceLevelGap,
			Severity: th.severity(types.BlockExperienceLevelGap),
			Description: fmt.Sprintf("Large seniority gap: %s to %s (%d levels)",
				cand.level(), job.level(), gap),
			Recommendation: "Target intermediate positions first or gain the missing experience",
		})
	}

	return blocking
}

func describe(c *types.Classification) string {
	switch {
	case c == nil:
		return "an unclassified profile"
	case c.HasJob():
		return c.SpecificJob
	case c.SubSector != "":
		return c.SubSector
	case c.HasSector():
		return c.PrimarySector
	default:
		return "an unclassified profile"
	}
}

func percent(v float64) int {
	return int(v*100 + 0.5)
}
