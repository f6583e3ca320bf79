package valueobject

import (
	"strings"
	"unicode"
)

// ICELength is the number of digits in a Moroccan ICE identifier
// (Identifiant Commun de l'Entreprise).
const ICELength = 15

// NormalizeICE strips spaces and separators from a raw ICE string.
func NormalizeICE(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidICE reports whether raw normalizes to a 15-digit ICE.
func IsValidICE(raw string) bool {
	return len(NormalizeICE(raw)) == ICELength
}

// IsValidRC reports whether a trade register number is present.
// The register format varies by court, so only presence is checked.
func IsValidRC(raw string) bool {
	return strings.TrimSpace(raw) != ""
}
