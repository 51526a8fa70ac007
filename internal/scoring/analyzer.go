package scoring

import (
	"fmt"
	"time"

	"github.com/jonathan/ats-analyzer/internal/types"
)

// Phase names reported to a Reporter
const (
	PhaseParsability = "parsability"
	PhaseContent     = "content"
	PhaseStructure   = "structure"
	PhaseGrading     = "grading"
	PhaseCompose     = "compose"
)

// Reporter observes analysis progress. Implementations must not retain or
// mutate detail maps after the call returns.
type Reporter interface {
	PhaseStarted(phase string)
	PhaseCompleted(phase string, detail map[string]any)
}

type nopReporter struct{}

func (nopReporter) PhaseStarted(string)                   {}
func (nopReporter) PhaseCompleted(string, map[string]any) {}

// phase is a named group of factor extractors run in order
type phase struct {
	name       string
	extractors []extractor
}

// Analyzer scores resume text. It is immutable after construction and safe
// for concurrent use.
type Analyzer struct {
	vocab       *Vocabulary
	reporter    Reporter
	currentYear int
	phases      []phase
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithVocabulary replaces the embedded default vocabulary. The vocabulary is
// copied, so later changes by the caller have no effect.
func WithVocabulary(v *Vocabulary) Option {
	return func(a *Analyzer) {
		if v != nil {
			a.vocab = v.Clone()
		}
	}
}

// WithReporter sets the phase observer
func WithReporter(r Reporter) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithCurrentYear fixes the year used to discard future dates
func WithCurrentYear(year int) Option {
	return func(a *Analyzer) {
		a.currentYear = year
	}
}

// NewAnalyzer builds an Analyzer, compiling the vocabulary once.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		reporter:    nopReporter{},
		currentYear: time.Now().Year(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.vocab == nil {
		a.vocab = DefaultVocabulary()
	}
	if err := a.vocab.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary: %w", err)
	}

	lx := newLexicon(a.vocab)
	a.phases = []phase{
		{name: PhaseParsability, extractors: []extractor{
			{FactorFormat, 5, lx.scoreFormat},
			{FactorReadability, 5, scoreReadability},
			{FactorHeaders, 5, lx.scoreHeaders},
			{FactorConsistency, 5, scoreConsistency},
			{FactorTableFree, 5, scoreTableFree},
		}},
		{name: PhaseContent, extractors: []extractor{
			{FactorKeywords, 10, lx.scoreKeywords},
			{FactorActionVerbs, 10, lx.scoreActionVerbs},
			{FactorAchievements, 10, scoreAchievements},
			{FactorTone, 5, lx.scoreTone},
			{FactorBuzzwords, 5, lx.scoreBuzzwords},
		}},
		{name: PhaseStructure, extractors: []extractor{
			{FactorContact, 10, scoreContact},
			{FactorSections, 10, lx.scoreSections},
			{FactorLength, 5, scoreLength},
			{FactorChronological, 5, scoreChronology(a.currentYear)},
			{FactorFile, 5, scoreFile},
		}},
	}

	if err := CheckFactorBudget(a.budget()); err != nil {
		return nil, err
	}
	return a, nil
}

// budget lists the declared maximum of every factor with a zero score
func (a *Analyzer) budget() []types.FactorScore {
	factors := make([]types.FactorScore, 0, 15)
	for _, p := range a.phases {
		for _, ex := range p.extractors {
			factors = append(factors, types.FactorScore{Factor: ex.name, Max: ex.maxPoints})
		}
	}
	return factors
}

// Observed returns a copy of the analyzer that reports phases to r instead.
// The compiled vocabulary is shared; a is not modified.
func (a *Analyzer) Observed(r Reporter) *Analyzer {
	if r == nil {
		r = nopReporter{}
	}
	observed := *a
	observed.reporter = r
	return &observed
}

// Vocabulary returns a copy of the vocabulary in use
func (a *Analyzer) Vocabulary() *Vocabulary {
	return a.vocab.Clone()
}

// Analyze scores text and returns a fresh report. Empty or junk text is
// valid input and yields a low score.
func (a *Analyzer) Analyze(text string) *types.Report {
	rt := NewResumeText(text)

	results := make([]FactorResult, 0, 15)
	for _, p := range a.phases {
		a.reporter.PhaseStarted(p.name)
		subtotal := 0
		for _, ex := range p.extractors {
			res := ex.score(rt)
			subtotal += res.Score.Score
			results = append(results, res)
		}
		a.reporter.PhaseCompleted(p.name, map[string]any{
			"factors": len(p.extractors),
			"points":  subtotal,
		})
	}

	a.reporter.PhaseStarted(PhaseGrading)
	factors := make([]types.FactorScore, len(results))
	for i, res := range results {
		factors[i] = res.Score
	}
	raw := Aggregate(factors)
	published := ApplyGradingCurve(raw)
	a.reporter.PhaseCompleted(PhaseGrading, map[string]any{
		"raw_score": raw,
		"ats_score": published,
	})

	a.reporter.PhaseStarted(PhaseCompose)
	report := Compose(raw, published, results, rt)
	a.reporter.PhaseCompleted(PhaseCompose, map[string]any{
		"improvements": len(report.Improvements),
		"word_count":   report.WordCount,
	})
	return report
}
