package parsing

import (
	"strings"
	"unicode/utf8"
)

const (
	// minInflectableRunes is the shortest keyword token that may match an inflected form.
	minInflectableRunes = 4
	// maxInflectionRunes is the longest suffix accepted as an inflection (e, s, es, ee, ees...).
	maxInflectionRunes = 3
)

// clauseSeparators split raw text into clauses before normalization erases punctuation.
const clauseSeparators = ".;:!?\n\r•·|"

// Document is normalized text split into clauses of tokens.
// A Document memoizes term lookups and is not safe for concurrent use.
type Document struct {
	clauses [][]string
	tokens  int
	memo    map[string][]int
}

// NewDocument normalizes text into a Document.
func NewDocument(text string) *Document {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(clauseSeparators, r)
	})

	doc := &Document{memo: make(map[string][]int)}
	for _, part := range raw {
		tokens := Tokens(part)
		if len(tokens) == 0 {
			continue
		}
		doc.clauses = append(doc.clauses, tokens)
		doc.tokens += len(tokens)
	}
	return doc
}

// Empty reports whether the document holds no tokens.
func (d *Document) Empty() bool {
	return d.tokens == 0
}

// TokenCount returns the number of tokens across all clauses.
func (d *Document) TokenCount() int {
	return d.tokens
}

// ClauseCount returns the number of non-empty clauses.
func (d *Document) ClauseCount() int {
	return len(d.clauses)
}

// Normalized returns the document as a single normalized string, clauses joined by spaces.
func (d *Document) Normalized() string {
	parts := make([]string, len(d.clauses))
	for i, clause := range d.clauses {
		parts[i] = strings.Join(clause, " ")
	}
	return strings.Join(parts, " ")
}

// Canonical returns the normalized clauses joined by " | ". Two texts with the same
// canonical form classify identically.
func (d *Document) Canonical() string {
	parts := make([]string, len(d.clauses))
	for i, clause := range d.clauses {
		parts[i] = strings.Join(clause, " ")
	}
	return strings.Join(parts, " | ")
}

// Contains reports whether the normalized term occurs in any clause.
func (d *Document) Contains(term string) bool {
	return len(d.ClausesWith(term)) > 0
}

// ClausesWith returns the indexes of the clauses containing the normalized term, ascending.
func (d *Document) ClausesWith(term string) []int {
	if found, ok := d.memo[term]; ok {
		return found
	}

	needle := strings.Fields(term)
	var found []int
	if len(needle) > 0 {
		for i, clause := range d.clauses {
			if containsSequence(clause, needle) {
				found = append(found, i)
			}
		}
	}
	d.memo[term] = found
	return found
}

// ClauseContains reports whether clause i contains the normalized term.
func (d *Document) ClauseContains(i int, term string) bool {
	for _, idx := range d.ClausesWith(term) {
		if idx == i {
			return true
		}
	}
	return false
}

func containsSequence(haystack, needle []string) bool {
	for start := 0; start+len(needle) <= len(haystack); start++ {
		matched := true
		for j, want := range needle {
			if !TokenMatches(haystack[start+j], want) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// TokenMatches reports whether a text token matches a keyword token: either exactly, or as an
// inflected form extending a keyword of at least four runes by at most three runes.
func TokenMatches(token, keyword string) bool {
	if token == keyword {
		return true
	}
	if !strings.HasPrefix(token, keyword) {
		return false
	}
	kwLen := utf8.RuneCountInString(keyword)
	if kwLen < minInflectableRunes {
		return false
	}
	return utf8.RuneCountInString(token)-kwLen <= maxInflectionRunes
}
