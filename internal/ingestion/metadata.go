package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// Metadata describes one extracted document
type Metadata struct {
	Filename  string `json:"filename,omitempty"`
	Format    Format `json:"format"`
	Method    string `json:"method"`    // Extraction tier that produced the text
	Timestamp string `json:"timestamp"` // RFC3339 format
	Hash      string `json:"hash"`      // SHA256 hex digest of the source bytes
	Bytes     int    `json:"bytes"`     // Source document size
	Chars     int    `json:"chars"`     // Extracted text length in characters
	Fallback  bool   `json:"fallback"`  // True when a low-confidence tier produced the text
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(data []byte, text, filename string, format Format, method string) *Metadata {
	return &Metadata{
		Filename:  filename,
		Format:    format,
		Method:    method,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(data),
		Bytes:     len(data),
		Chars:     utf8.RuneCountInString(text),
		Fallback:  method == MethodPDFRaw || method == MethodWholeFile,
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
