// Package ingestion turns uploaded resume documents into plain text for scoring.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Format is the detected document type
type Format string

// Supported formats
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// Extraction methods recorded in Metadata.Method, from most to least reliable
const (
	MethodPDFText   = "pdf_text"
	MethodPDFRaw    = "pdf_raw"
	MethodDOCX      = "docx_xml"
	MethodHTML      = "html"
	MethodText      = "plain_text"
	MethodWholeFile = "whole_file"
)

// DefaultMinFallbackChars is the amount of text a low-confidence tier must
// recover before its output is accepted.
const DefaultMinFallbackChars = 100

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Document is the text recovered from one file
type Document struct {
	Text     string
	Metadata *Metadata
}

// Extractor recovers text from resume documents using format-specific tiers
// with progressively less reliable fallbacks. It is safe for concurrent use.
type Extractor struct {
	minFallbackChars int
	log              *zap.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithMinFallbackChars sets the acceptance gate for the raw PDF and whole-file tiers
func WithMinFallbackChars(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.minFallbackChars = n
		}
	}
}

// WithLogger sets the logger used to trace tier decisions
func WithLogger(log *zap.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

// NewExtractor creates an Extractor with the given options
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		minFallbackChars: DefaultMinFallbackChars,
		log:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetectFormat picks a format from the file extension, then the declared
// content type, then the leading bytes.
func DetectFormat(filename, contentType string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".md", ".text":
		return FormatText
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return FormatPDF
	case strings.Contains(ct, "wordprocessingml"):
		return FormatDOCX
	case strings.Contains(ct, "text/html"):
		return FormatHTML
	}

	detected := mimetype.Detect(data)
	switch {
	case detected.Is("application/pdf"):
		return FormatPDF
	case detected.Is(docxMIME):
		return FormatDOCX
	case detected.Is("text/html"):
		return FormatHTML
	}
	return FormatText
}

// Extract recovers text from data. When the format-specific tier fails, the
// whole file is decoded as text before giving up with an ExtractionError.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename, contentType string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := DetectFormat(filename, contentType, data)
	log := e.log.With(zap.String("file", filename), zap.String("format", string(format)))

	text, method, err := e.extractFormat(format, data)
	if err != nil {
		log.Warn("format extraction failed, trying whole-file fallback", zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		fallback, ok := wholeFileText(data)
		if !ok || utf8.RuneCountInString(fallback) <= e.minFallbackChars {
			return nil, &ExtractionError{Filename: filename, Message: ErrUnreadableMessage, Cause: err}
		}
		text, method = fallback, MethodWholeFile
	}

	text = CleanText(text)
	log.Debug("text extracted", zap.String("method", method), zap.Int("chars", utf8.RuneCountInString(text)))

	return &Document{
		Text:     text,
		Metadata: NewMetadata(data, text, filename, format, method),
	}, nil
}

// ExtractFile reads path and extracts its text
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &FileError{Path: path, Message: "file not found", Cause: err}
		}
		return nil, &FileError{Path: path, Message: "failed to read file", Cause: err}
	}
	return e.Extract(ctx, data, filepath.Base(path), "")
}

func (e *Extractor) extractFormat(format Format, data []byte) (string, string, error) {
	switch format {
	case FormatPDF:
		return e.extractPDF(data)
	case FormatDOCX:
		text, err := extractDOCX(data)
		return text, MethodDOCX, err
	case FormatHTML:
		text, err := extractHTML(data)
		return text, MethodHTML, err
	default:
		return strings.ToValidUTF8(string(data), "\uFFFD"), MethodText, nil
	}
}

// extractPDF tries the PDF text layer, then scrapes string literals from the
// raw bytes. Either tier must recover more than minFallbackChars.
func (e *Extractor) extractPDF(data []byte) (string, string, error) {
	text, err := extractPDFText(data)
	if err == nil && utf8.RuneCountInString(strings.TrimSpace(text)) > e.minFallbackChars {
		return text, MethodPDFText, nil
	}
	e.log.Debug("pdf text layer unusable, scraping raw bytes", zap.Error(err))

	raw := scrapeRawPDF(data)
	if utf8.RuneCountInString(raw) > e.minFallbackChars {
		return raw, MethodPDFRaw, nil
	}

	if err != nil {
		return "", "", fmt.Errorf("PDF appears to be empty or unreadable: %w", err)
	}
	return "", "", errors.New("PDF appears to be empty or unreadable")
}
