package recognition

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText applies NFC normalization and strips control characters and
// zero-width spaces left by the engine. Line breaks and the joiners used by
// Indic scripts (ZWJ, ZWNJ) are kept.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '\r', r == '\u200B', r == '\uFEFF', r == '\f':
			// dropped
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeWord normalizes a single token and trims surrounding whitespace.
func NormalizeWord(s string) string {
	return strings.TrimSpace(NormalizeText(s))
}
