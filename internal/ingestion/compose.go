package ingestion

import (
	"strings"

	"github.com/jonathan/job-matcher/internal/types"
)

// Record is a résumé or a posting given as fields rather than free text. When Text is set
// it is used as is; otherwise the text is composed from the other fields.
type Record struct {
	Text        string           `json:"text,omitempty"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Missions    []string         `json:"missions,omitempty"`
	Skills      []string         `json:"skills,omitempty"`
	Sector      string           `json:"sector,omitempty"`
	Profile     string           `json:"profile,omitempty"`
	Attributes  types.Attributes `json:"attributes"`
}

// ComposeText builds classification text from a record's fields, one clause per line.
// The title appears twice.
func ComposeText(r Record) string {
	var lines []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}

	add(r.Title)
	add(r.Title)
	add(r.Description)
	for _, m := range r.Missions {
		add(m)
	}
	if len(r.Skills) > 0 {
		add(strings.Join(r.Skills, ", "))
	}
	add(r.Sector)
	add(r.Profile)

	return CleanText(strings.Join(lines, "\n"))
}

// Input converts the record into an engine input. Record skills are added to the
// attribute skills when the attributes list none.
func (r Record) Input() types.Input {
	text := CleanText(r.Text)
	if text == "" {
		text = ComposeText(r)
	}
	attrs := r.Attributes
	if len(attrs.Skills) == 0 && len(r.Skills) > 0 {
		attrs.Skills = append([]string(nil), r.Skills...)
	}
	return types.Input{Text: text, Attributes: attrs}
}
