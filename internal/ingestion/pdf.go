package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	rawPDFPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\(([^)]+)\)`),
		regexp.MustCompile(`\[([^\]]+)\]`),
		regexp.MustCompile(`T[mdJ]*\(([^)]+)\)`),
		regexp.MustCompile("[A-Za-z0-9\\s.,;:!?@#$%^&*()\\-_+=<>{}\\[\\]|\\\\/'\"`~]{10,}"),
	}
	rawMarkerPattern = regexp.MustCompile(`\(|\)|\[|\]|T[mdJ]*\(`)
	rawEscapePattern = regexp.MustCompile(`\\[A-Za-z]`)
)

// minRawSegment is the shortest scraped segment kept
const minRawSegment = 5

// extractPDFText reads the text layer of a PDF
func extractPDFText(data []byte) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

// scrapeRawPDF recovers readable runs from undecoded PDF bytes. It is the
// least reliable PDF tier and only sees uncompressed content streams.
func scrapeRawPDF(data []byte) string {
	content := decodeLatin1(data)

	var sb strings.Builder
	for _, pattern := range rawPDFPatterns {
		for _, match := range pattern.FindAllString(content, -1) {
			clean := rawMarkerPattern.ReplaceAllString(match, "")
			clean = rawEscapePattern.ReplaceAllString(clean, " ")
			clean = strings.Join(strings.Fields(clean), " ")
			if len(clean) > minRawSegment {
				sb.WriteString(clean)
				sb.WriteString(" ")
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
