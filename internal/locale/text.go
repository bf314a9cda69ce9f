package locale

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseSpaces trims s and replaces every run of whitespace with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold lower-cases s, strips diacritics and collapses whitespace so that
// "Información  Cliente" and "informacion cliente" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return CollapseSpaces(strings.ToLower(out))
}

// ContainsFold reports whether needle occurs in haystack after folding both.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// currencyToken accepts the amount shape of a transaction start line, grouped
// or not.
var currencyToken = regexp.MustCompile(`\$\s*\d|\b\d[\d.,]*[.,]\d{2}\b`)

// HasCurrencyToken reports whether line carries something shaped like a
// money amount: a "$" followed by digits, or a number with exactly two
// fractional digits.
func HasCurrencyToken(line string) bool {
	return currencyToken.MatchString(line)
}
