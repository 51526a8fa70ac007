package scoring

import (
	"slices"
	"strings"

	"github.com/jonathan/ats-analyzer/internal/types"
)

// Report list caps
const (
	MaxImprovements = 10
	MaxStrengths    = 8
	MaxInsights     = 5
	MaxWarnings     = 3
)

// AnalyzerName identifies this engine in reports
const AnalyzerName = "pro_ats_engine"

// summaryBand is the narrative opening for published scores at or above minScore
type summaryBand struct {
	minScore int
	text     string
}

var summaryBands = []summaryBand{
	{95, "EXCEPTIONAL: Resume is ATS-optimized to professional standards. Will pass 98%+ of applicant tracking systems. "},
	{90, "EXCELLENT: Highly optimized for ATS with strong structure and content. Expected to pass 95%+ of systems. "},
	{85, "VERY STRONG: Well-optimized resume with minor areas for improvement. Should pass 90%+ of ATS filters. "},
	{80, "STRONG: Good ATS compatibility with clear structure. Will pass 85%+ of systems with minor tweaks. "},
	{75, "GOOD: Solid foundation with several optimization opportunities. Expected to pass 75%+ of ATS. "},
	{70, "FAIR: Needs improvements in key areas for better ATS performance. May have issues with 30%+ of systems. "},
	{0, "NEEDS WORK: Significant improvements required for ATS compatibility. High risk of rejection by tracking systems. "},
}

// bandInsights are appended for published scores at or above minScore
var bandInsights = []struct {
	minScore int
	insights []string
}{
	{90, []string{"Will pass 95%+ of ATS systems", "Meets Fortune 500 company standards"}},
	{80, []string{"Will pass 85%+ of ATS systems", "Strong candidate for most companies"}},
	{70, []string{"Will pass 70%+ of ATS systems", "Some ATS systems may have issues"}},
}

// SortImprovements orders items by priority, highest first. The sort is
// stable so equal-priority items keep their detection order.
func SortImprovements(items []types.ImprovementItem) []types.ImprovementItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b types.ImprovementItem) int {
		return b.Priority.Compare(a.Priority)
	})
	return sorted
}

// Compose assembles the final report from independent factor results
func Compose(raw, published int, results []FactorResult, text *ResumeText) *types.Report {
	factors := make([]types.FactorScore, 0, len(results))
	improvements := make([]types.ImprovementItem, 0)
	strengths := make([]string, 0)
	insights := make([]string, 0)
	warnings := make([]string, 0)
	metrics := make(map[string]float64)

	for _, res := range results {
		factors = append(factors, res.Score)
		improvements = append(improvements, res.Improvements...)
		for _, f := range res.Findings {
			switch f.Kind {
			case types.FindingStrength:
				strengths = append(strengths, f.Text)
			case types.FindingInsight:
				insights = append(insights, f.Text)
			case types.FindingWarning:
				warnings = append(warnings, f.Text)
			}
		}
		for k, v := range res.Metrics {
			metrics[k] = v
		}
	}

	improvements = SortImprovements(improvements)
	summary := buildSummary(published, strengths, improvements)
	insights = append(insights, insightsForScore(published)...)

	return &types.Report{
		ATSScore:      published,
		RawScore:      raw,
		Factors:       factors,
		Improvements:  truncate(improvements, MaxImprovements),
		Strengths:     truncate(strengths, MaxStrengths),
		Insights:      truncate(insights, MaxInsights),
		Warnings:      truncate(warnings, MaxWarnings),
		Summary:       summary,
		Metrics:       metrics,
		SectionsFound: int(metrics[types.MetricSectionCount]),
		WordCount:     text.WordCount(),
		AnalyzedBy:    AnalyzerName,
	}
}

// buildSummary writes the band sentence, up to three strengths and the
// highest-priority improvement. improvements must already be sorted.
func buildSummary(published int, strengths []string, improvements []types.ImprovementItem) string {
	var sb strings.Builder
	for _, band := range summaryBands {
		if published >= band.minScore {
			sb.WriteString(band.text)
			break
		}
	}

	if len(strengths) > 0 {
		sb.WriteString("Strengths: ")
		sb.WriteString(strings.Join(strengths[:min(len(strengths), 3)], ", "))
		sb.WriteString(". ")
	}

	if len(improvements) > 0 {
		sb.WriteString("Priority fix: ")
		sb.WriteString(improvements[0].Description)
		sb.WriteString(".")
	}

	return strings.TrimSpace(sb.String())
}

func insightsForScore(published int) []string {
	for _, band := range bandInsights {
		if published >= band.minScore {
			return band.insights
		}
	}
	return nil
}

func truncate[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	return items[:limit:limit]
}
