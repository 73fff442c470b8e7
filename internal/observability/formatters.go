// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/profile-reconciler/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
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
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCanonicalExperiences outputs a human-readable summary of the merged timeline.
func (p *Printer) PrintCanonicalExperiences(experiences []types.CanonicalExperience) {
	if len(experiences) == 0 {
		p.printBox("CANONICAL EXPERIENCES", "(none)")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Merged into %d experiences:\n\n", len(experiences)))

	count := min(len(experiences), maxItemsToShow)
	for i := 0; i < count; i++ {
		exp := experiences[i]
		sb.WriteString(fmt.Sprintf("%s — %s\n", exp.CompanyName, exp.PrimaryTitle))

		span := exp.StartDate
		if exp.EndDate != "" {
			span += " – " + exp.EndDate
		}
		if span != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", span))
		}
		sb.WriteString(fmt.Sprintf("  sources: %d, bullets: %d\n",
			len(exp.SourceExperienceIDs), len(exp.Bullets)))
		if len(exp.TitleProgression) > 1 {
			titles := strings.Join(exp.TitleProgression, " ← ")
			if len(titles) > 48 {
				titles = titles[:45] + "..."
			}
			sb.WriteString(fmt.Sprintf("  titles: %s\n", titles))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(experiences) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more experiences", len(experiences)-maxItemsToShow))
	}

	p.printBox("CANONICAL EXPERIENCES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCanonicalSkills outputs the weighted canonical skill list.
func (p *Printer) PrintCanonicalSkills(skills []types.CanonicalSkill) {
	if len(skills) == 0 {
		p.printBox("CANONICAL SKILLS", "(none)")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Aggregated %d skills:\n\n", len(skills)))

	count := min(len(skills), maxItemsToShow*2)
	for i := 0; i < count; i++ {
		s := skills[i]
		sb.WriteString(fmt.Sprintf("  %-24s %-12s w=%d\n", s.Label, s.Category, s.Weight))
	}
	if len(skills) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more skills", len(skills)-count))
	}

	p.printBox("CANONICAL SKILLS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRebuildSummary outputs one-line counts for a completed rebuild.
func (p *Printer) PrintRebuildSummary(profile *types.CanonicalProfile) {
	if profile == nil {
		return
	}
	bullets := 0
	for _, exp := range profile.Experiences {
		bullets += len(exp.Bullets)
	}
	content := fmt.Sprintf("Experiences: %d\nBullets:     %d\nSkills:      %d",
		len(profile.Experiences), bullets, len(profile.Skills))
	p.printBox("REBUILD COMPLETE", content)
}
