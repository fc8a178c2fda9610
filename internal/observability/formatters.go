// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/career-transitions/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the width of a 100% share bar
	barWidth = 12
)

// Printer handles formatted output for answers and progress
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
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or pads line to the inner box width, counting runes.
func pad(line string) string {
	inner := boxWidth - 4
	n := utf8.RuneCountInString(line)
	if n > inner {
		runes := []rune(line)
		return string(runes[:inner-3]) + "..."
	}
	return line + strings.Repeat(" ", inner-n)
}

// wrap splits text into lines no wider than the inner box width.
func wrap(text string) []string {
	inner := boxWidth - 4
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var line strings.Builder
		for _, word := range strings.Fields(paragraph) {
			if line.Len() > 0 && utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) > inner {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteString(" ")
			}
			line.WriteString(word)
		}
		lines = append(lines, line.String())
	}
	return lines
}

// PrintResult outputs a human-readable rendering of an answer.
func (p *Printer) PrintResult(result *types.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	for _, line := range wrap(result.Summary) {
		sb.WriteString(line + "\n")
	}

	if data := result.Data; data != nil && result.Success {
		switch {
		case data.Comparison != nil:
			writeComparison(&sb, data.Comparison)
		case len(data.Exits) > 0:
			writeBuckets(&sb, "Top destinations", data.Exits)
			writeBuckets(&sb, "By industry", data.Industries)
		case len(data.Sources) > 0:
			writeBuckets(&sb, "Top sources", data.Sources)
			writeBuckets(&sb, "By background", data.Industries)
		}
		if data.TotalAnalyzed > 0 {
			sb.WriteString(fmt.Sprintf("\nSample: %d people analyzed, %d in cohort\n", data.TotalAnalyzed, data.CohortSize))
		}
	}

	if result.FollowUp != "" {
		sb.WriteString("\n")
		for _, line := range wrap(result.FollowUp) {
			sb.WriteString(line + "\n")
		}
	}

	title := string(result.Type)
	if !result.Success {
		title += " (no answer)"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

func writeBuckets(sb *strings.Builder, label string, buckets []types.Bucket) {
	if len(buckets) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", label))

	count := min(len(buckets), maxItemsToShow)
	for i := 0; i < count; i++ {
		b := buckets[i]
		sb.WriteString(fmt.Sprintf("  %-20s %3d%% %s", truncate(b.Key, 20), b.Percentage, bar(b.Percentage)))
		if b.Industry != "" {
			sb.WriteString(fmt.Sprintf(" %s", b.Industry))
		}
		sb.WriteString("\n")
		if len(b.SampleRoles) > 0 {
			sb.WriteString(fmt.Sprintf("    e.g. %s\n", strings.Join(b.SampleRoles, ", ")))
		}
	}
	if len(buckets) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(buckets)-maxItemsToShow))
	}
}

func writeComparison(sb *strings.Builder, c *types.Comparison) {
	sb.WriteString(fmt.Sprintf("\nInto %s:\n", c.TargetIndustry))
	sb.WriteString(fmt.Sprintf("  %-20s %3d%% %s\n", truncate(c.CompanyA, 20), c.RateA, bar(c.RateA)))
	sb.WriteString(fmt.Sprintf("  %-20s %3d%% %s\n", truncate(c.CompanyB, 20), c.RateB, bar(c.RateB)))
	if c.Winner == "" {
		sb.WriteString("  No clear winner\n")
	}
}

func bar(percentage int) string {
	filled := min(max(percentage, 0), 100) * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// PrintProgress outputs one step of answering a query.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(step, message string) {
	fmt.Fprintf(p.out, "  → [%s] %s\n", step, message)
}
