// Package rules evaluates declarative keyword-combination rules.
//
// A Group is a conjunction of terms; a Set is a disjunction of groups. The same
// interpreter drives required combinations, exclude combinations and global
// sector exclusion rules.
package rules

// Matcher reports whether a normalized term is present in a text.
type Matcher interface {
	Contains(term string) bool
}

// Group is satisfied when every term is present.
type Group []string

// Set is satisfied when any of its groups is satisfied.
type Set []Group

// Satisfied reports whether every term of the group is present. An empty group is never satisfied.
func (g Group) Satisfied(m Matcher) bool {
	if len(g) == 0 {
		return false
	}
	for _, term := range g {
		if !m.Contains(term) {
			return false
		}
	}
	return true
}

// Result describes the evaluation of a Set.
type Result struct {
	// Satisfied lists the indexes of the satisfied groups, ascending.
	Satisfied []int
	// Terms lists the distinct terms of the satisfied groups in declaration order.
	Terms []string
}

// Any reports whether at least one group was satisfied.
func (r Result) Any() bool {
	return len(r.Satisfied) > 0
}

// Count returns the number of satisfied groups.
func (r Result) Count() int {
	return len(r.Satisfied)
}

// Evaluate checks every group of the set against m.
func (s Set) Evaluate(m Matcher) Result {
	var result Result
	seen := make(map[string]bool)
	for i, group := range s {
		if !group.Satisfied(m) {
			continue
		}
		result.Satisfied = append(result.Satisfied, i)
		for _, term := range group {
			if !seen[term] {
				seen[term] = true
				result.Terms = append(result.Terms, term)
			}
		}
	}
	return result
}

// Matches reports whether any group of the set is satisfied.
func (s Set) Matches(m Matcher) bool {
	for _, group := range s {
		if group.Satisfied(m) {
			return true
		}
	}
	return false
}

// Terms returns the distinct terms across all groups in declaration order.
func (s Set) Terms() []string {
	var terms []string
	seen := make(map[string]bool)
	for _, group := range s {
		for _, term := range group {
			if !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	return terms
}

// HasEmptyGroup reports whether the set contains a group with no terms.
func (s Set) HasEmptyGroup() bool {
	for _, group := range s {
		if len(group) == 0 {
			return true
		}
	}
	return false
}
