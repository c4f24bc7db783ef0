// Package textfix repairs UTF-8 text that was decoded as Windows-1252 somewhere
// upstream (for example "Ã˜" instead of "Ø") and normalizes it to NFC.
package textfix

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// known is applied first. The sequences come from measurement names exported
// by the inspection sheets.
var known = strings.NewReplacer(
	"Ã˜", "Ø",
	"Ã¸", "ø",
	"Â±", "±",
	"Â°", "°",
	"Âµ", "µ",
	"Â²", "²",
	"Â³", "³",
)

// Repair returns s with double-encoded sequences restored and NFC applied.
// Text that is already valid is returned unchanged apart from normalization.
func Repair(s string) string {
	if s == "" {
		return s
	}
	s = known.Replace(s)
	if fixed, ok := reencode(s); ok {
		s = fixed
	}
	return norm.NFC.String(s)
}

// RepairAll applies Repair to every element and returns a new slice.
func RepairAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Repair(v)
	}
	return out
}

// Equal compares two strings after repair.
func Equal(a, b string) bool {
	return Repair(a) == Repair(b)
}

// reencode maps every rune back to its Windows-1252 byte. If that byte string
// is valid UTF-8 containing multi-byte sequences, the input was mojibake.
func reencode(s string) (string, bool) {
	if isASCII(s) {
		return "", false
	}
	raw, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return "", false
	}
	if raw == s || !utf8.ValidString(raw) || isASCII(raw) {
		return "", false
	}
	return raw, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
