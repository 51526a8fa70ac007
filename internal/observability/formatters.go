// Package observability provides formatted report output for verbose CLI mode
// and a structured-logging phase reporter for the analyzer.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ats-analyzer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the width of a factor score bar
	barWidth = 10
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
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to limit runes, ending in "..." when cut
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

// scoreBar renders score/max as a fixed-width bar
func scoreBar(score, maxPoints int) string {
	filled := 0
	if maxPoints > 0 {
		filled = score * barWidth / maxPoints
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// PrintScore outputs the published and raw scores with the summary.
func (p *Printer) PrintScore(source string, report *types.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	if source != "" {
		sb.WriteString(fmt.Sprintf("File:      %s\n", source))
	}
	sb.WriteString(fmt.Sprintf("ATS Score: %d/100 (raw %d)\n", report.ATSScore, report.RawScore))
	sb.WriteString(fmt.Sprintf("Words:     %d   Sections: %d\n", report.WordCount, report.SectionsFound))

	if report.Summary != "" {
		sb.WriteString("\n")
		for _, line := range wrap(report.Summary, boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}

	p.printBox("ATS COMPATIBILITY SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFactors outputs every factor with a score bar.
func (p *Printer) PrintFactors(factors []types.FactorScore) {
	if len(factors) == 0 {
		return
	}

	var sb strings.Builder
	for _, f := range factors {
		sb.WriteString(fmt.Sprintf("%-22s %s %2d/%d\n", f.Factor, scoreBar(f.Score, f.Max), f.Score, f.Max))
	}

	p.printBox("FACTOR BREAKDOWN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintImprovements outputs the top improvements with their priority.
func (p *Printer) PrintImprovements(items []types.ImprovementItem) {
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := items[i]
		sb.WriteString(fmt.Sprintf("[%s] %s\n", strings.ToUpper(item.Priority.String()), item.Field))
		sb.WriteString(fmt.Sprintf("  %s\n", item.Description))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(items)-maxItemsToShow))
	}

	p.printBox("IMPROVEMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFindings outputs strengths, warnings and insights.
func (p *Printer) PrintFindings(report *types.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	writeList(&sb, "Strengths:", "✓", report.Strengths)
	writeList(&sb, "Warnings:", "⚠", report.Warnings)
	writeList(&sb, "Insights:", "•", report.Insights)
	if sb.Len() == 0 {
		return
	}

	p.printBox("FINDINGS", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, heading, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(heading + "\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  %s %s\n", marker, items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintReport outputs every section of a report.
func (p *Printer) PrintReport(source string, report *types.Report) {
	if report == nil {
		return
	}
	p.PrintScore(source, report)
	p.PrintFactors(report.Factors)
	p.PrintImprovements(report.Improvements)
	p.PrintFindings(report)
}

// BatchResult is the outcome of analyzing one file in a batch
type BatchResult struct {
	Source string
	Report *types.Report
	Err    error
}

// PrintBatchSummary outputs one line per analyzed file.
func (p *Printer) PrintBatchSummary(results []BatchResult) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			sb.WriteString(fmt.Sprintf("✗ %s: %v\n", r.Source, r.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("%3d  %s\n", r.Report.ATSScore, r.Source))
	}
	sb.WriteString(fmt.Sprintf("\n%d analyzed, %d failed", len(results)-failed, failed))

	p.printBox("BATCH RESULTS", sb.String())
}

// wrap splits text into lines of at most width runes on word boundaries
func wrap(text string, width int) []string {
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
