package types

// SkillTargets is the weighted list of skills a job expects.
type SkillTargets struct {
	Skills []Skill `json:"skills"`
}

// Skill represents a single target skill with weight and source
type Skill struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Source   string  `json:"source"`
	Critical bool    `json:"critical,omitempty"`
}

// Critical returns the critical subset of the targets, in order.
func (t *SkillTargets) Critical() []Skill {
	if t == nil {
		return nil
	}
	var critical []Skill
	for _, s := range t.Skills {
		if s.Critical {
			critical = append(critical, s)
		}
	}
	return critical
}

// Empty reports whether there are no targets.
func (t *SkillTargets) Empty() bool {
	return t == nil || len(t.Skills) == 0
}
