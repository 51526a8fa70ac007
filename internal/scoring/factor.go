package scoring

import (
	"regexp"
	"strings"

	"github.com/jonathan/ats-analyzer/internal/types"
)

// MaxScore is the score ceiling; factor max values must sum to it.
const MaxScore = 100

// Factor names as they appear in Report.Factors
const (
	FactorFormat        = "ATS-Friendly Format"
	FactorReadability   = "Text Readability"
	FactorHeaders       = "Section Headers"
	FactorConsistency   = "Format Consistency"
	FactorTableFree     = "Table-Free"
	FactorKeywords      = "Keyword Optimization"
	FactorActionVerbs   = "Action Verbs"
	FactorAchievements  = "Quantifiable Results"
	FactorTone          = "Professional Tone"
	FactorBuzzwords     = "Buzzword Balance"
	FactorContact       = "Contact Information"
	FactorSections      = "Section Completeness"
	FactorLength        = "Length Optimization"
	FactorChronological = "Chronological Order"
	FactorFile          = "File Optimization"
)

// FactorResult is everything one factor extractor produces. Results are
// independent values; nothing is shared between extractors.
type FactorResult struct {
	Score        types.FactorScore
	Findings     []types.Finding
	Improvements []types.ImprovementItem
	Metrics      map[string]float64
}

func newResult(factor string, maxPoints int) FactorResult {
	return FactorResult{Score: types.FactorScore{Factor: factor, Max: maxPoints}}
}

// scored sets the score, clamped to [0, Max]
func (r FactorResult) scored(points int) FactorResult {
	r.Score.Score = max(0, min(points, r.Score.Max))
	return r
}

func (r *FactorResult) strength(text string) {
	r.Findings = append(r.Findings, types.Finding{Kind: types.FindingStrength, Text: text})
}

func (r *FactorResult) warning(text string) {
	r.Findings = append(r.Findings, types.Finding{Kind: types.FindingWarning, Text: text})
}

func (r *FactorResult) insight(text string) {
	r.Findings = append(r.Findings, types.Finding{Kind: types.FindingInsight, Text: text})
}

func (r *FactorResult) improve(field, description string, priority types.Priority) {
	r.Improvements = append(r.Improvements, types.ImprovementItem{
		Field:       field,
		Description: description,
		Priority:    priority,
	})
}

func (r *FactorResult) metric(key string, value float64) {
	if r.Metrics == nil {
		r.Metrics = make(map[string]float64)
	}
	r.Metrics[key] = value
}

// extractor scores one factor from the resume text
type extractor struct {
	name      string
	maxPoints int
	score     func(*ResumeText) FactorResult
}

// termPattern is a compiled vocabulary term
type termPattern struct {
	term string
	re   *regexp.Regexp
}

// lexicon holds the regular expressions compiled from a Vocabulary.
// It is read-only after construction and shared by concurrent analyses.
type lexicon struct {
	vocab           *Vocabulary
	strongVerbs     []termPattern
	weakVerbs       []termPattern
	buzzwords       []termPattern
	sections        []termPattern
	toneCategories  []termPattern
	imageWords      *regexp.Regexp
	knownHeader     *regexp.Regexp
	criticalSection map[string]bool
}

func newLexicon(vocab *Vocabulary) *lexicon {
	lx := &lexicon{
		vocab:           vocab,
		strongVerbs:     wordPatterns(vocab.StrongVerbs),
		weakVerbs:       wordPatterns(vocab.WeakVerbs),
		buzzwords:       wordPatterns(vocab.Buzzwords),
		sections:        wordPatterns(vocab.RequiredSections),
		imageWords:      regexp.MustCompile(`(?i)(?:` + alternation(vocab.ImageWords) + `)`),
		knownHeader:     regexp.MustCompile(`(?i)^(?:` + alternation(vocab.HeaderSections) + `)`),
		criticalSection: make(map[string]bool, len(vocab.CriticalSections)),
	}
	for _, c := range vocab.ToneCategories {
		lx.toneCategories = append(lx.toneCategories, termPattern{
			term: c.Name,
			re:   regexp.MustCompile(`(?i)\b(?:` + alternation(c.Terms) + `)\b`),
		})
	}
	for _, s := range vocab.CriticalSections {
		lx.criticalSection[s] = true
	}
	return lx
}

// wordPatterns compiles one case-insensitive word-boundary pattern per term
func wordPatterns(terms []string) []termPattern {
	patterns := make([]termPattern, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, termPattern{
			term: term,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
		})
	}
	return patterns
}

func alternation(terms []string) string {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	return strings.Join(quoted, "|")
}

// matchingTerms returns the terms whose pattern matches text, in vocabulary order
func matchingTerms(patterns []termPattern, text string) []string {
	found := make([]string, 0)
	for _, p := range patterns {
		if p.re.MatchString(text) {
			found = append(found, p.term)
		}
	}
	return found
}
