package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/ats-analyzer/internal/types"
)

var (
	specialGlyphPattern = regexp.MustCompile(`[□■▢▣▤▥▦▧▨▩▪▫▬▭▮▯]`)
	boxDrawingPattern   = regexp.MustCompile(`[┌┬┐├┼┤└┴┘╔╦╗╠╬╣╚╩╝]`)
	asciiBorderPattern  = regexp.MustCompile(`\+-+\+`)

	allCapsHeaderPattern   = regexp.MustCompile(`^[A-Z][A-Z\s]+:?$`)
	titleCaseHeaderPattern = regexp.MustCompile(`^[A-Z][a-z]+(?:\s[A-Z][a-z]+)*:?$`)

	dashBulletPattern     = regexp.MustCompile(`^-\s+`)
	asteriskBulletPattern = regexp.MustCompile(`^\*\s+`)
	dotBulletPattern      = regexp.MustCompile(`^•\s+`)
	numberBulletPattern   = regexp.MustCompile(`^\d+\.\s+`)
)

const (
	// readableHighPercent and readableLowPercent bound the readability tiers
	readableHighPercent = 85.0
	readableLowPercent  = 70.0
	// headerMinRunes and headerMaxRunes bound header line lengths (exclusive)
	headerMinRunes = 3
	headerMaxRunes = 50
	// bulletConsistencyRatio is the share the dominant bullet style must exceed
	bulletConsistencyRatio = 0.8
	// maxPipes is the number of pipe characters tolerated before assuming a table
	maxPipes = 10
)

func (lx *lexicon) scoreFormat(t *ResumeText) FactorResult {
	r := newResult(FactorFormat, 5)
	if specialGlyphPattern.MatchString(t.raw) || lx.imageWords.MatchString(t.raw) {
		r.warning("Contains special characters that may break ATS parsing")
		return r.scored(0)
	}
	r.strength("No ATS-breaking characters detected")
	return r.scored(5)
}

func scoreReadability(t *ResumeText) FactorResult {
	r := newResult(FactorReadability, 5)
	ratio := readableRatio(t.raw)
	r.metric("readable_ratio", roundTo(ratio, 2))

	switch {
	case ratio >= readableHighPercent:
		r.strength("High text readability for ATS")
		return r.scored(5)
	case ratio >= readableLowPercent:
		return r.scored(3)
	default:
		return r.scored(0)
	}
}

// readableRatio returns the percentage of ASCII alphanumeric and whitespace
// characters. Empty text has a ratio of 0.
func readableRatio(text string) float64 {
	total, readable := 0, 0
	for _, c := range text {
		total++
		if c < utf8.RuneSelf && (unicode.IsLetter(c) || unicode.IsDigit(c)) || unicode.IsSpace(c) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total) * 100
}

func (lx *lexicon) scoreHeaders(t *ResumeText) FactorResult {
	r := newResult(FactorHeaders, 5)
	headers := lx.detectSectionHeaders(t.lines)
	r.metric(types.MetricSectionCount, float64(len(headers)))

	if len(headers) >= 4 {
		r.strength(fmt.Sprintf("Strong section structure (%d sections)", len(headers)))
	}
	return r.scored(min(len(headers), 5))
}

// detectSectionHeaders returns the unique header-like lines in order of appearance
func (lx *lexicon) detectSectionHeaders(lines []string) []string {
	seen := make(map[string]bool)
	headers := make([]string, 0)
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n <= headerMinRunes || n >= headerMaxRunes {
			continue
		}
		if !allCapsHeaderPattern.MatchString(line) &&
			!titleCaseHeaderPattern.MatchString(line) &&
			!lx.knownHeader.MatchString(line) {
			continue
		}
		header := strings.TrimSpace(strings.ReplaceAll(line, ":", ""))
		if !seen[header] {
			seen[header] = true
			headers = append(headers, header)
		}
	}
	return headers
}

// bulletStyles counts bulleted lines per marker style
type bulletStyles struct {
	dash, asterisk, dot, number int
}

func (b bulletStyles) total() int {
	return b.dash + b.asterisk + b.dot + b.number
}

func (b bulletStyles) dominant() int {
	return max(b.dash, b.asterisk, b.dot, b.number)
}

// consistent reports whether there are no bullets or one style dominates
func (b bulletStyles) consistent() bool {
	total := b.total()
	if total == 0 {
		return true
	}
	return float64(b.dominant())/float64(total) > bulletConsistencyRatio
}

func countBulletStyles(lines []string) bulletStyles {
	var b bulletStyles
	for _, line := range lines {
		switch {
		case dashBulletPattern.MatchString(line):
			b.dash++
		case asteriskBulletPattern.MatchString(line):
			b.asterisk++
		case dotBulletPattern.MatchString(line):
			b.dot++
		case numberBulletPattern.MatchString(line):
			b.number++
		}
	}
	return b
}

func scoreConsistency(t *ResumeText) FactorResult {
	r := newResult(FactorConsistency, 5)
	if countBulletStyles(t.lines).consistent() {
		r.strength("Consistent formatting throughout")
		return r.scored(5)
	}
	r.improve("Formatting", "Use consistent bullet point styles (all • or all -)", types.PriorityMedium)
	return r.scored(2)
}

// hasTables detects box-drawing glyphs, ASCII table borders or heavy pipe use
func hasTables(text string) bool {
	return boxDrawingPattern.MatchString(text) ||
		asciiBorderPattern.MatchString(text) ||
		strings.Count(text, "|") > maxPipes
}

func scoreTableFree(t *ResumeText) FactorResult {
	r := newResult(FactorTableFree, 5)
	if !hasTables(t.raw) {
		r.strength("No tables detected (good for ATS)")
		return r.scored(5)
	}
	r.warning("Tables detected - may cause ATS parsing issues")
	r.improve("Formatting", "Remove tables - convert to bullet points for better ATS parsing", types.PriorityHigh)
	return r.scored(1)
}
