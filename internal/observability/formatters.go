// Package observability provides the human-readable CLI output and the Prometheus metrics.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/taxonomy"
	"github.com/jonathan/job-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// shorten truncates s to limit runes, ending with "..." when cut.
func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// optionalFactor formats a factor that may be absent.
func optionalFactor(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// PrintClassification outputs a classification result.
func (p *Printer) PrintClassification(cls *types.Classification) {
	if cls == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sector:      %s\n", orDash(cls.PrimarySector)))
	sb.WriteString(fmt.Sprintf("Sub-sector:  %s\n", orDash(cls.SubSector)))
	sb.WriteString(fmt.Sprintf("Job:         %s\n", orDash(cls.SpecificJob)))
	sb.WriteString(fmt.Sprintf("Level:       %s\n", orDash(cls.JobLevel)))
	sb.WriteString(fmt.Sprintf("Confidence:  %.2f\n", cls.Confidence))
	sb.WriteString(fmt.Sprintf("Specialization: %.2f\n", cls.SpecializationScore))

	if len(cls.SecondarySectors) > 0 {
		sb.WriteString(fmt.Sprintf("Also:        %s\n", strings.Join(cls.SecondarySectors, ", ")))
	}

	if len(cls.MatchedKeywords) > 0 {
		sb.WriteString("\nMatched keywords:\n")
		count := min(len(cls.MatchedKeywords), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", cls.MatchedKeywords[i]))
		}
		if len(cls.MatchedKeywords) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(cls.MatchedKeywords)-maxItemsToShow))
		}
	}

	p.printBox("CLASSIFICATION ("+ClassificationOutcome(cls)+")", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatchResults outputs ranked match results, best first.
func (p *Printer) PrintMatchResults(results []*types.MatchResult) {
	if len(results) == 0 {
		p.printBox("MATCH RESULTS", "No jobs to rank")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Jobs ranked: %d\n\n", len(results)))

	for i, r := range results {
		job := "-"
		if r.Job != nil {
			job = orDash(r.Job.SpecificJob)
		}
		sb.WriteString(fmt.Sprintf("#%d  job[%d] %s\n", i+1, r.JobIndex, job))
		sb.WriteString(fmt.Sprintf("    Score: %d/100  (%s, %s)\n", r.Score, r.Transition.Type, r.Transition.Difficulty))
		sb.WriteString(fmt.Sprintf("    Compat %.2f  Exp %s  Skills %.2f\n",
			r.Factors.Compatibility, optionalFactor(r.Factors.Experience), r.Factors.Skills))
		for _, bf := range r.BlockingFactors {
			sb.WriteString(fmt.Sprintf("    ⚠ %s (%s)\n", bf.Type, bf.Severity))
		}
		if len(r.Recommendations) > 0 {
			sb.WriteString(fmt.Sprintf("    → %s\n", r.Recommendations[0]))
		}
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("MATCH RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTaxonomy outputs a summary of the registry: its sectors and how many jobs each holds.
func (p *Printer) PrintTaxonomy(reg *taxonomy.Registry) {
	if reg == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Version:   %s\n", reg.Version()))
	sb.WriteString(fmt.Sprintf("Language:  %s\n", reg.Language()))
	sb.WriteString(fmt.Sprintf("Jobs:      %d\n\n", reg.Len()))

	for _, sector := range reg.Sectors() {
		jobs := 0
		subs := reg.SubSectors(sector.ID)
		for _, sub := range subs {
			jobs += len(reg.JobsInSubSector(sub.ID))
		}
		sb.WriteString(fmt.Sprintf("• %s: %d sub-sectors, %d jobs\n", sector.ID, len(subs), jobs))
	}

	p.printBox("TAXONOMY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJob outputs one job definition.
func (p *Printer) PrintJob(job *taxonomy.JobDefinition) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Id:          %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Label:       %s\n", job.Label))
	sb.WriteString(fmt.Sprintf("Sector:      %s / %s\n", job.Sector, job.SubSector))
	sb.WriteString(fmt.Sprintf("Keywords:    %d\n", len(job.Keywords)))

	if len(job.Skills) > 0 {
		sb.WriteString("\nSkills:\n")
		count := min(len(job.Skills), maxItemsToShow)
		for i := 0; i < count; i++ {
			marker := " "
			if job.IsCritical(job.Skills[i]) {
				marker = "*"
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", marker, job.Skills[i]))
		}
		if len(job.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(job.Skills)-maxItemsToShow))
		}
	}

	if len(job.Overrides) > 0 {
		sb.WriteString("\nIncompatible with:\n")
		for _, o := range job.Overrides {
			sb.WriteString(fmt.Sprintf("  • %s (%.2f)\n", o.Job, o.Coefficient))
		}
	}

	p.printBox("JOB "+strings.ToUpper(job.ID), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCacheStats outputs the classification cache counters.
func (p *Printer) PrintCacheStats(stats cache.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Backend:   %s\n", stats.Backend))
	sb.WriteString(fmt.Sprintf("Entries:   %d\n", stats.Entries))
	sb.WriteString(fmt.Sprintf("Hits:      %d\n", stats.Hits))
	sb.WriteString(fmt.Sprintf("Misses:    %d\n", stats.Misses))
	sb.WriteString(fmt.Sprintf("Hit rate:  %.0f%%", stats.HitRate*100))
	if stats.L2Errors > 0 {
		sb.WriteString(fmt.Sprintf("\nL2 errors: %d", stats.L2Errors))
	}
	if stats.Breaker != "" {
		sb.WriteString(fmt.Sprintf("\nBreaker:   %s", stats.Breaker))
	}

	p.printBox("CACHE", sb.String())
}
