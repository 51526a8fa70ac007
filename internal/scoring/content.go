package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/ats-analyzer/internal/types"
)

// achievementPatterns match quantified results. Every occurrence counts.
var achievementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\$\d+[,.\d]*k?\b`),
	regexp.MustCompile(`\d+\+`),
	regexp.MustCompile(`(?i)increased\s+by\s+\d+`),
	regexp.MustCompile(`(?i)reduced\s+by\s+\d+`),
	regexp.MustCompile(`(?i)improved\s+by\s+\d+`),
	regexp.MustCompile(`(?i)saved\s+\$\d+`),
	regexp.MustCompile(`(?i)generated\s+\$\d+`),
	regexp.MustCompile(`(?i)grew\s+by\s+\d+`),
	regexp.MustCompile(`(?i)achieved\s+\d+`),
}

var firstPersonPattern = regexp.MustCompile(`(?i)\b(?:i|my|mine)\b`)

const (
	// maxFirstPerson is the first-person pronoun count tolerated before a tone penalty
	maxFirstPerson = 20
	// tonePenalty is deducted per matched category of unprofessional language
	tonePenalty = 2
	// buzzwordAllowance is the number of buzzwords tolerated without penalty
	buzzwordAllowance = 2
)

func (lx *lexicon) scoreKeywords(t *ResumeText) FactorResult {
	r := newResult(FactorKeywords, 10)

	tech := containedTerms(lx.vocab.TechnicalKeywords, t.lower)
	soft := containedTerms(lx.vocab.SoftSkills, t.lower)
	total := len(tech) + len(soft)

	density := 0.0
	if t.wordCount > 0 {
		density = float64(total) / (float64(t.wordCount) / 100)
	}
	r.metric(types.MetricKeywordDensity, roundTo(density, 2))

	points := math.Min(float64(len(tech))*0.5, 7) + math.Min(float64(len(soft))*0.3, 3)

	r.insight(fmt.Sprintf("Found %d industry keywords", total))
	switch {
	case total >= 10:
		r.strength("Excellent keyword optimization")
	case total < 5:
		r.improve("Keywords",
			fmt.Sprintf("Add more industry keywords. Found only %d/20+ recommended", total),
			types.PriorityHigh)
	}
	return r.scored(int(math.Round(points)))
}

// containedTerms returns the terms that occur as substrings of lowerText
func containedTerms(terms []string, lowerText string) []string {
	found := make([]string, 0)
	for _, term := range terms {
		if strings.Contains(lowerText, term) {
			found = append(found, term)
		}
	}
	return found
}

func (lx *lexicon) scoreActionVerbs(t *ResumeText) FactorResult {
	r := newResult(FactorActionVerbs, 10)

	strong := len(matchingTerms(lx.strongVerbs, t.raw))
	weak := len(matchingTerms(lx.weakVerbs, t.raw))
	r.metric(types.MetricActionVerbCount, float64(strong))

	points := math.Min(float64(strong)*1.2, 8) - math.Min(float64(weak)*0.5, 3)
	points = math.Max(0, points)

	switch {
	case strong >= 8:
		r.strength("Powerful action verbs throughout")
	case strong < 4:
		r.improve("Writing Style",
			"Use more strong action verbs (Managed, Developed, Created, Implemented)",
			types.PriorityMedium)
	}
	return r.scored(int(math.Round(points)))
}

// countAchievements counts every occurrence of every achievement pattern
func countAchievements(text string) int {
	count := 0
	for _, re := range achievementPatterns {
		count += len(re.FindAllStringIndex(text, -1))
	}
	return count
}

func scoreAchievements(t *ResumeText) FactorResult {
	r := newResult(FactorAchievements, 10)

	count := countAchievements(t.raw)
	r.metric(types.MetricAchievementCount, float64(count))

	switch {
	case count >= 5:
		r.strength(fmt.Sprintf("Strong results orientation (%d quantifiable achievements)", count))
	case count < 2:
		r.improve("Achievements", "Add more measurable results with numbers and percentages", types.PriorityHigh)
	}
	return r.scored(min(count*2, 10))
}

func (lx *lexicon) scoreTone(t *ResumeText) FactorResult {
	r := newResult(FactorTone, 5)

	points := 5
	for _, category := range lx.toneCategories {
		if category.re.MatchString(t.raw) {
			points -= tonePenalty
		}
	}
	if len(firstPersonPattern.FindAllStringIndex(t.raw, -1)) > maxFirstPerson {
		points--
	}

	if points >= 4 {
		r.strength("Professional writing style maintained")
	}
	return r.scored(points)
}

func (lx *lexicon) scoreBuzzwords(t *ResumeText) FactorResult {
	r := newResult(FactorBuzzwords, 5)

	found := matchingTerms(lx.buzzwords, t.raw)
	r.metric("buzzword_count", float64(len(found)))

	if len(found) > 0 {
		shown := found[:min(len(found), 3)]
		r.improve("Word Choice",
			"Reduce overused buzzwords: "+strings.Join(shown, ", "),
			types.PriorityLow)
	}
	penalty := max(0, len(found)-buzzwordAllowance)
	return r.scored(5 - penalty)
}

// roundTo rounds v to the given number of decimal places
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
