package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// buildZip returns an in-memory archive holding files
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>Senior</w:t><w:tab/><w:t>Engineer</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Led the </w:t></w:r><w:r><w:t>platform team</w:t></w:r></w:p>
</w:body>
</w:document>`

// rawPDF has no cross-reference table, so only the raw scrape can read it
const rawPDF = "%PDF-1.4\n1 0 obj\nBT (Senior Software Engineer with ten years of experience) Tj " +
	"(Led platform migrations and mentored engineers across three teams) Tj ET\nendobj\n%%EOF"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        Format
	}{
		{"pdf extension", "CV.PDF", "", nil, FormatPDF},
		{"docx extension", "cv.docx", "", nil, FormatDOCX},
		{"html extension", "cv.htm", "", nil, FormatHTML},
		{"txt extension", "cv.txt", "application/pdf", nil, FormatText},
		{"pdf content type", "upload", "application/pdf", nil, FormatPDF},
		{"docx content type", "upload", docxMIME, nil, FormatDOCX},
		{"html content type", "upload", "text/html; charset=utf-8", nil, FormatHTML},
		{"sniffed pdf", "upload", "", []byte(rawPDF), FormatPDF},
		{"sniffed html", "upload", "", []byte("<html><body><p>Jane</p></body></html>"), FormatHTML},
		{"unknown", "upload", "", []byte("Jane Doe\nEngineer"), FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename, tt.contentType, tt.data))
		})
	}
}

func TestExtract_PlainText(t *testing.T) {
	e := NewExtractor()
	doc, err := e.Extract(context.Background(), []byte("Jane Doe\r\n\r\n\r\n\r\nSenior    Engineer"), "cv.txt", "text/plain")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\n\nSenior Engineer", doc.Text)
	assert.Equal(t, FormatText, doc.Metadata.Format)
	assert.Equal(t, MethodText, doc.Metadata.Method)
	assert.False(t, doc.Metadata.Fallback)
}

func TestExtract_EmptyText(t *testing.T) {
	doc, err := NewExtractor().Extract(context.Background(), nil, "cv.txt", "")
	require.NoError(t, err)
	assert.Empty(t, doc.Text)
}

func TestExtract_DOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   documentXML,
	})

	doc, err := NewExtractor().Extract(context.Background(), data, "cv.docx", "")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\nSenior Engineer\nLed the platform team", doc.Text)
	assert.Equal(t, MethodDOCX, doc.Metadata.Method)
}

func TestExtract_DOCXMissingBody(t *testing.T) {
	data := buildZip(t, map[string]string{"a.txt": "x"})

	_, err := NewExtractor().Extract(context.Background(), data, "cv.docx", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Contains(t, err.Error(), "no word/document.xml")
}

func TestExtract_HTML(t *testing.T) {
	html := `<html><head><style>p { color: red }</style><script>var tracking = 1;</script></head>
<body><h1>Jane Doe</h1><ul><li>Built APIs</li><li>Led team</li></ul><p>Austin, TX</p></body></html>`

	doc, err := NewExtractor().Extract(context.Background(), []byte(html), "cv.html", "")
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "Jane Doe\n")
	assert.Contains(t, doc.Text, "- Built APIs\n")
	assert.Contains(t, doc.Text, "- Led team\n")
	assert.Contains(t, doc.Text, "Austin, TX")
	assert.NotContains(t, doc.Text, "tracking")
	assert.NotContains(t, doc.Text, "color")
}

func TestExtract_PDFRawScrape(t *testing.T) {
	doc, err := NewExtractor().Extract(context.Background(), []byte(rawPDF), "cv.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, MethodPDFRaw, doc.Metadata.Method)
	assert.True(t, doc.Metadata.Fallback)
	assert.Contains(t, doc.Text, "Senior Software Engineer with ten years of experience")
	assert.Contains(t, doc.Text, "Led platform migrations")
}

func TestExtract_UnreadablePDF(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), []byte("%PDF-1.4 (tiny)"), "cv.pdf", "")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrExtractionFailed))
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, ErrUnreadableMessage, extractionErr.Message)
	assert.Equal(t, "cv.pdf", extractionErr.Filename)
}

func TestExtract_MinFallbackCharsGate(t *testing.T) {
	short := []byte("%PDF-1.4\nBT (Backend engineer, Go and Postgres) Tj ET\n%%EOF")

	_, err := NewExtractor().Extract(context.Background(), short, "cv.pdf", "")
	assert.ErrorIs(t, err, ErrExtractionFailed)

	doc, err := NewExtractor(WithMinFallbackChars(20)).Extract(context.Background(), short, "cv.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, MethodPDFRaw, doc.Metadata.Method)
}

func TestExtract_WholeFileFallback(t *testing.T) {
	// A corrupt DOCX that is really a long text document
	body := strings.Repeat("Experienced engineer building reliable services. ", 10)

	doc, err := NewExtractor().Extract(context.Background(), []byte(body), "cv.docx", "")
	require.NoError(t, err)

	assert.Equal(t, MethodWholeFile, doc.Metadata.Method)
	assert.True(t, doc.Metadata.Fallback)
	assert.Contains(t, doc.Text, "Experienced engineer")
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor().Extract(ctx, []byte("text"), "cv.txt", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\nEngineer"), 0644))

	doc, err := NewExtractor().ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nEngineer", doc.Text)
	assert.Equal(t, "resume.txt", doc.Metadata.Filename)
}

func TestExtractFile_NotFound(t *testing.T) {
	_, err := NewExtractor().ExtractFile(context.Background(), "/nonexistent/resume.pdf")

	var fileErr *FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "file not found", fileErr.Message)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrExtractionFailed)
}

func TestWholeFileText(t *testing.T) {
	text, ok := wholeFileText([]byte(strings.Repeat("word ", 50)))
	assert.True(t, ok)
	assert.Contains(t, text, "word word")

	_, ok = wholeFileText([]byte("too short"))
	assert.False(t, ok)

	_, ok = wholeFileText(bytes.Repeat([]byte{0xff, 0xfe}, 150))
	assert.False(t, ok)
}

func TestWholeFileText_Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(strings.Repeat("Résumé_", 40))
	require.NoError(t, err)

	text, ok := wholeFileText([]byte(encoded))
	require.True(t, ok)
	assert.Contains(t, text, "Résumé_")
	assert.NotContains(t, text, "\uFFFD")
}

func TestWholeFileText_UTF16LE(t *testing.T) {
	encoded, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewEncoder().String(strings.Repeat("Résumé_", 40))
	require.NoError(t, err)

	text, ok := wholeFileText([]byte(encoded))
	require.True(t, ok)
	assert.Contains(t, text, "Résumé_")
	assert.NotContains(t, text, "\x00")
}

func TestScrapeRawPDF(t *testing.T) {
	text := scrapeRawPDF([]byte(rawPDF))
	assert.Contains(t, text, "Led platform migrations and mentored engineers across three teams")
	assert.Empty(t, scrapeRawPDF([]byte("(ab)")))
}
