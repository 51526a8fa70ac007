// Package scoring computes heuristic ATS compatibility reports from extracted resume text.
package scoring

import (
	"strings"
	"unicode/utf8"
)

// ResumeText is the immutable input of one analysis: the raw text plus the
// metrics derived from it. Build it with NewResumeText.
type ResumeText struct {
	raw       string
	lower     string
	lines     []string
	wordCount int
	charCount int
}

// NewResumeText derives the metrics of text. Empty text is valid and yields zero counts.
func NewResumeText(text string) *ResumeText {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return &ResumeText{
		raw:       text,
		lower:     strings.ToLower(text),
		lines:     lines,
		wordCount: len(strings.Fields(text)),
		charCount: utf8.RuneCountInString(text),
	}
}

// Raw returns the text as received
func (t *ResumeText) Raw() string { return t.raw }

// Lower returns the lowercased text
func (t *ResumeText) Lower() string { return t.lower }

// Lines returns a copy of the trimmed, non-empty lines
func (t *ResumeText) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// WordCount returns the number of whitespace-separated words
func (t *ResumeText) WordCount() int { return t.wordCount }

// LineCount returns the number of non-empty lines
func (t *ResumeText) LineCount() int { return len(t.lines) }

// CharCount returns the number of characters (runes)
func (t *ResumeText) CharCount() int { return t.charCount }
