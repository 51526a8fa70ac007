// Package types provides type definitions for structured data used throughout the ats-analyzer system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Priority ranks an improvement suggestion. Higher values are more urgent.
type Priority int

// Priority levels, ordered Low < Medium < High
const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

// String returns the lowercase wire name of the priority
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Compare returns a negative number when p ranks below other, zero when equal
// and a positive number when p ranks above other.
func (p Priority) Compare(other Priority) int {
	return int(p) - int(other)
}

// ParsePriority converts a wire name back into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("unknown priority: %q", s)
	}
}

// MarshalJSON encodes the priority as its wire name
func (p Priority) MarshalJSON() ([]byte, error) {
	if p < PriorityLow || p > PriorityHigh {
		return nil, fmt.Errorf("cannot marshal %s", p)
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a wire name into the priority
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("priority must be a string: %w", err)
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// FindingKind tags a finding as a strength, warning or insight
type FindingKind string

// Finding kinds
const (
	FindingStrength FindingKind = "strength"
	FindingWarning  FindingKind = "warning"
	FindingInsight  FindingKind = "insight"
)

// Finding is a discrete observation surfaced to the end user
type Finding struct {
	Kind FindingKind `json:"kind"`
	Text string      `json:"text"`
}

// FactorScore is the outcome of one scored dimension. Score is always within [0, Max].
type FactorScore struct {
	Factor string `json:"factor"`
	Score  int    `json:"score"`
	Max    int    `json:"max"`
}

// ImprovementItem is a prioritized, actionable suggestion tied to a resume field
type ImprovementItem struct {
	Field       string   `json:"field"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Metric keys reported in Report.Metrics
const (
	MetricKeywordDensity   = "keyword_density"
	MetricAchievementCount = "achievement_count"
	MetricActionVerbCount  = "action_verb_count"
	MetricSectionCount     = "section_count"
)

// Report is the complete result of one resume analysis.
// A Report is built once per analysis and never mutated afterwards.
type Report struct {
	ATSScore      int                `json:"ats_score"`
	RawScore      int                `json:"raw_score"`
	Factors       []FactorScore      `json:"factors"`
	Improvements  []ImprovementItem  `json:"improvements"`
	Strengths     []string           `json:"strengths"`
	Insights      []string           `json:"insights"`
	Warnings      []string           `json:"warnings"`
	Summary       string             `json:"summary"`
	Metrics       map[string]float64 `json:"metrics"`
	SectionsFound int                `json:"sections_found"`
	WordCount     int                `json:"word_count"`
	AnalyzedBy    string             `json:"analyzed_by"`
}

// Factor returns the factor with the given name, or false if absent
func (r *Report) Factor(name string) (FactorScore, bool) {
	for _, f := range r.Factors {
		if f.Factor == name {
			return f, true
		}
	}
	return FactorScore{}, false
}

// HasImprovement reports whether any improvement description contains substr (case-insensitive)
func (r *Report) HasImprovement(substr string, priority Priority) bool {
	needle := strings.ToLower(substr)
	for _, item := range r.Improvements {
		if item.Priority == priority && strings.Contains(strings.ToLower(item.Description), needle) {
			return true
		}
	}
	return false
}

// ToJSON marshals the report to pretty-printed JSON
func (r *Report) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return data, nil
}
