package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	multiSpacePattern   = regexp.MustCompile(`\s+`)
	excessBlankPattern  = regexp.MustCompile(`\n\n\n+`)
	bulletPrefixPattern = regexp.MustCompile(`^(?:- |\* |• |· )`)
)

// CleanText cleans and normalizes extracted text while preserving resume structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// 1. Normalize line endings (CRLF → LF) and strip characters ATS parsers drop
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")
	content = strings.ReplaceAll(content, "\x00", "")

	// 2. Process each line
	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	// 3. Join, collapse blank runs and trim
	result := strings.Join(cleanedLines, "\n")
	result = removeExcessiveBlankLines(result)
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	// Trim trailing whitespace
	line = strings.TrimRight(line, " \t\f\v")

	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	indent := len(line) - len(trimmed)

	// Bullets keep their marker; only the text after it is normalized
	if isBulletLine(trimmed) {
		marker := bulletPrefixPattern.FindString(trimmed)
		body := multiSpacePattern.ReplaceAllString(strings.TrimSpace(trimmed[len(marker):]), " ")
		return strings.Repeat(" ", indent) + marker + body
	}

	// For regular lines, normalize multiple spaces to single space
	// but preserve intentional indentation at start of line
	content := multiSpacePattern.ReplaceAllString(strings.TrimSpace(line), " ")
	if indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	return bulletPrefixPattern.MatchString(strings.TrimLeft(line, " \t"))
}

// removeExcessiveBlankLines reduces consecutive blank lines to max 2
func removeExcessiveBlankLines(content string) string {
	return excessBlankPattern.ReplaceAllString(content, "\n\n")
}

// WriteOutput writes the extracted text and its metadata to outDir as
// <base>.txt and <base>.meta.json.
func WriteOutput(outDir, base, text string, metadata *Metadata) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	textPath := filepath.Join(outDir, base+".txt")
	if err := os.WriteFile(textPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}

	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	metaPath := filepath.Join(outDir, base+".meta.json")
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}
