package identity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName normalizes a display name for comparison (lowercase,
// no diacritics, collapsed whitespace).
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), " ")
}

// NewID derives a unique identity id from a display name and the existing
// identity set: the trimmed name with whitespace replaced by underscores,
// suffixed with a three-digit serial that disambiguates repeated names.
func NewID(name string, existing []Identity) string {
	clean := strings.Join(strings.Fields(strings.TrimSpace(name)), "_")
	same := 0
	target := NormalizeName(name)
	for i := range existing {
		if NormalizeName(existing[i].Name) == target {
			same++
		}
	}
	return fmt.Sprintf("%s_%03d", clean, same+1)
}
