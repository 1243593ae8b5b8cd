package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed before text extraction.
const noiseSelectors = "nav, footer, header, script, style, noscript, iframe, form, " +
	".ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup, .share, .related-jobs"

// blockSelectors end a clause: their text is followed by a line break.
const blockSelectors = "p, li, dt, dd, h1, h2, h3, h4, h5, h6, div, section, article, tr, td, th, blockquote, pre"

// JobPostingSelectors returns selectors that usually wrap the body of a posting or résumé,
// most specific first.
func JobPostingSelectors() []string {
	return []string{
		"[itemprop='description']",
		".job-description",
		".job__description",
		".description",
		".posting-description",
		".resume",
		".cv",
		"main",
		"article",
		".content",
		"#content",
	}
}

// ExtractHTMLText returns the cleaned text of an HTML document. Block elements become separate
// lines so list items and paragraphs stay separate clauses; blank lines are dropped.
func ExtractHTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelectors).Remove()

	var main *goquery.Selection
	for _, selector := range JobPostingSelectors() {
		if selection := doc.Find(selector); selection.Length() > 0 {
			main = selection.First()
			break
		}
	}
	// Fallback to body if no selector matched
	if main == nil {
		main = doc.Find("body")
	}

	main.Find("br").ReplaceWithHtml("\n")
	main.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(CleanText(main.Text()), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}
