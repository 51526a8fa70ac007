package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/ats-analyzer/internal/types"
)

var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern     = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	linkedInPattern  = regexp.MustCompile(`(?i)linkedin\.com/(?:in|pub)/`)
	locationPattern  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+)*,\s*[A-Z]{2}\b`)
	portfolioPattern = regexp.MustCompile(`(?i)github\.com|gitlab\.com|behance\.net|portfolio|\.com/~`)

	datePattern = regexp.MustCompile(`(?i)(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4}|\d{4}\s*[-–]\s*\d{4}|\d{1,2}/\d{4}`)
	yearPattern = regexp.MustCompile(`\d{4}`)
)

const (
	// optimalMinWords..optimalMaxWords is the ideal resume length
	optimalMinWords = 400
	optimalMaxWords = 800
	// acceptableMinWords..acceptableMaxWords earns partial credit
	acceptableMinWords = 300
	acceptableMaxWords = 1000
	// chronologicalRatio is the share of non-increasing year pairs required
	chronologicalRatio = 0.7
	// earliestYear excludes numbers that are not plausible employment years
	earliestYear = 1900
	// sectionWeight is the points earned per canonical section found
	sectionWeight = 1.67
)

// contactCheck is one weighted contact-information check
type contactCheck struct {
	label    string
	points   int
	required bool
	pattern  *regexp.Regexp
}

var contactChecks = []contactCheck{
	{label: "professional email", points: 3, required: true, pattern: emailPattern},
	{label: "phone number", points: 3, required: true, pattern: phonePattern},
	{label: "LinkedIn profile", points: 2, required: true, pattern: linkedInPattern},
	{label: "location/city", points: 1, required: true, pattern: locationPattern},
	{label: "portfolio or code host link", points: 1, required: false, pattern: portfolioPattern},
}

func scoreContact(t *ResumeText) FactorResult {
	r := newResult(FactorContact, 10)

	points := 0
	for _, check := range contactChecks {
		if check.pattern.MatchString(t.raw) {
			points += check.points
			continue
		}
		if check.required {
			r.improve("Contact Info", "Add "+check.label, types.PriorityHigh)
		}
	}

	if points >= 9 {
		r.strength("Complete contact information")
	}
	return r.scored(points)
}

func (lx *lexicon) scoreSections(t *ResumeText) FactorResult {
	r := newResult(FactorSections, 10)

	found := 0
	for _, section := range lx.sections {
		if section.re.MatchString(t.raw) {
			found++
			continue
		}
		priority := types.PriorityMedium
		if lx.criticalSection[section.term] {
			priority = types.PriorityHigh
		}
		r.improve("Structure", fmt.Sprintf("Add %q section", titleCase(section.term)), priority)
	}

	points := math.Min(float64(found)*sectionWeight, 10)
	return r.scored(int(math.Round(points)))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + w[size:]
	}
	return strings.Join(words, " ")
}

func scoreLength(t *ResumeText) FactorResult {
	r := newResult(FactorLength, 5)
	words := t.wordCount

	switch {
	case words >= optimalMinWords && words <= optimalMaxWords:
		r.strength("Optimal resume length")
		return r.scored(5)
	case words >= acceptableMinWords && words <= acceptableMaxWords:
		suggestion := "Consider being more concise"
		if words < optimalMinWords {
			suggestion = "Consider adding more detail"
		}
		r.improve("Length", suggestion, types.PriorityMedium)
		return r.scored(3)
	default:
		suggestion := "Too long - condense to 2 pages maximum"
		if words < acceptableMinWords {
			suggestion = "Too short - add more experience details"
		}
		r.improve("Length", suggestion, types.PriorityMedium)
		return r.scored(1)
	}
}

// extractYears normalizes every date-like token to its year, dropping
// implausible values.
func extractYears(text string, currentYear int) []int {
	years := make([]int, 0)
	for _, token := range datePattern.FindAllString(text, -1) {
		y, err := strconv.Atoi(yearPattern.FindString(token))
		if err != nil {
			continue
		}
		if y > earliestYear && y <= currentYear+1 {
			years = append(years, y)
		}
	}
	return years
}

// isReverseChronological reports whether years are mostly non-increasing.
// Fewer than two years is not enough evidence against it.
func isReverseChronological(years []int) bool {
	if len(years) < 2 {
		return true
	}
	descending := 0
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			descending++
		}
	}
	return float64(descending)/float64(len(years)-1) > chronologicalRatio
}

func scoreChronology(currentYear int) func(*ResumeText) FactorResult {
	return func(t *ResumeText) FactorResult {
		r := newResult(FactorChronological, 5)
		if isReverseChronological(extractYears(t.raw, currentYear)) {
			r.strength("Reverse-chronological order (industry standard)")
			return r.scored(5)
		}
		r.improve("Structure", "Use reverse-chronological order (most recent first)", types.PriorityMedium)
		return r.scored(2)
	}
}

// scoreFile always grants full credit: the engine only sees extracted text,
// so file size and type have already been handled upstream.
func scoreFile(_ *ResumeText) FactorResult {
	return newResult(FactorFile, 5).scored(5)
}
