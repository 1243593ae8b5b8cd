// Package parsing provides the text normalization shared by taxonomy authoring and classification.
package parsing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ligatures are not decomposed by NFD and must be folded explicitly.
var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "oe",
	"æ", "ae", "Æ", "ae",
	"ß", "ss",
)

// Normalize case-folds text, strips diacritics and turns every character that is not a
// letter or a digit into a single space. Keywords and input text must both go through
// this function or matching silently degrades.
func Normalize(text string) string {
	return strings.Join(Tokens(text), " ")
}

// Tokens returns the normalized tokens of text.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}

	folded := foldDiacritics(ligatures.Replace(text))
	return strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// foldDiacritics removes combining marks after canonical decomposition (é -> e).
func foldDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return result
}

// skillNormalizations maps common skill name variants to canonical names.
// Keys and values are already in normalized form.
var skillNormalizations = map[string]string{
	"declaration sociale nominative": "dsn",
	"sage 100":                       "sage",
	"sage 1000":                      "sage",
	"sage comptabilite":              "sage",
	"ms excel":                       "excel",
	"microsoft excel":                "excel",
	"excel avance":                   "excel",
	"sap fi":                         "sap",
	"sap fico":                       "sap",
	"pack office":                    "office",
	"suite office":                   "office",
	"microsoft office":               "office",
	"golang":                         "go",
	"js":                             "javascript",
	"ts":                             "typescript",
	"reactjs":                        "react",
	"react js":                       "react",
	"nodejs":                         "node js",
	"k8s":                            "kubernetes",
	"ressources humaines":            "rh",
}

// NormalizeSkillName normalizes a skill name to its canonical comparison key.
func NormalizeSkillName(skillName string) string {
	normalized := Normalize(skillName)
	if normalized == "" {
		return ""
	}
	if canonical, ok := skillNormalizations[normalized]; ok {
		return canonical
	}
	return normalized
}

// NormalizeSkills normalizes and deduplicates a skill list, preserving first-seen order.
func NormalizeSkills(skills []string) []string {
	if len(skills) == 0 {
		return nil
	}

	result := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, skill := range skills {
		normalized := NormalizeSkillName(skill)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}
