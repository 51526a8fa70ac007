package ingestion

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

const (
	// wholeFileTextPrefix bounds the bytes decoded by the plain UTF-8 attempt
	wholeFileTextPrefix = 100000
	// wholeFileDecodePrefix bounds the bytes decoded per alternative encoding
	wholeFileDecodePrefix = 50000
	// wholeFileMinChars is the text length a decode must exceed to count
	wholeFileMinChars = 200
)

var letterPattern = regexp.MustCompile(`[A-Za-z]`)

// fallbackEncodings are tried in order after plain UTF-8
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"latin1", charmap.ISO8859_1},
	{"utf16le", xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)},
}

// wholeFileText decodes the leading bytes of data as text regardless of its
// declared format. It reports false when no decode looks like prose.
func wholeFileText(data []byte) (string, bool) {
	asText := strings.ToValidUTF8(string(prefix(data, wholeFileTextPrefix)), "\uFFFD")
	if utf8.RuneCountInString(asText) > wholeFileMinChars && strings.Contains(asText, " ") {
		return asText, true
	}

	head := prefix(data, wholeFileDecodePrefix)
	for _, fe := range fallbackEncodings {
		decoded, err := fe.enc.NewDecoder().Bytes(head)
		if err != nil {
			continue
		}
		text := strings.ToValidUTF8(string(decoded), "\uFFFD")
		// NULs mean the bytes were wider than the encoding, as with UTF-16 read as latin1
		if utf8.RuneCountInString(text) > wholeFileMinChars && letterPattern.MatchString(text) && !strings.ContainsRune(text, 0) {
			return text, true
		}
	}
	return "", false
}

// decodeLatin1 maps every byte to the code point of the same value
func decodeLatin1(data []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

func prefix(data []byte, n int) []byte {
	if len(data) > n {
		return data[:n]
	}
	return data
}
