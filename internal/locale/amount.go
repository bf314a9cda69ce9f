// Package locale normalizes locale-dependent amounts, dates and text found in
// bank statements.
package locale

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparseableAmount is returned when a raw amount has no numeric reading.
var ErrUnparseableAmount = errors.New("unparseable amount")

// Separators configures decimal and thousands separators. When both are set
// and differ they are applied as given; otherwise they are detected per value.
type Separators struct {
	Decimal  string `yaml:"decimal_separator" json:"decimal_separator"`
	Thousand string `yaml:"thousand_separator" json:"thousand_separator"`
}

// Explicit reports whether the separators are usable without detection.
func (s Separators) Explicit() bool {
	return s.Decimal != "" && s.Thousand != "" && s.Decimal != s.Thousand
}

// Auto is the zero Separators value: detect per value.
var Auto = Separators{}

// ParseAmount converts a raw amount such as "$ 1.234,56", "1,234.56-" or
// "-120.000,00" into a decimal.
func ParseAmount(raw string, seps Separators) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '+' || r == '-' {
			return r
		}
		return -1
	}, raw)

	if n := len(clean); n > 1 && (clean[n-1] == '-' || clean[n-1] == '+') {
		clean = clean[n-1:] + clean[:n-1]
	}

	sign := ""
	if clean != "" && (clean[0] == '-' || clean[0] == '+') {
		if clean[0] == '-' {
			sign = "-"
		}
		clean = clean[1:]
	}
	clean = strings.TrimRight(clean, ".,")

	if !strings.ContainsAny(clean, "0123456789") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseableAmount, raw)
	}

	if seps.Explicit() {
		clean = strings.ReplaceAll(clean, seps.Thousand, "")
		clean = strings.ReplaceAll(clean, seps.Decimal, ".")
	} else {
		clean = detectSeparators(clean)
	}

	d, err := decimal.NewFromString(sign + clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseableAmount, raw)
	}
	return d, nil
}

// MustParseAmount is ParseAmount for literals known to be valid. It panics
// on error.
func MustParseAmount(raw string) decimal.Decimal {
	d, err := ParseAmount(raw, Auto)
	if err != nil {
		panic(err)
	}
	return d
}

// detectSeparators rewrites s so that "." is the only separator left and
// marks the decimal point.
func detectSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		return singleSeparator(s, ",", lastComma, true)
	case lastDot >= 0:
		return singleSeparator(s, ".", lastDot, false)
	default:
		return s
	}
}

// singleSeparator handles values with one kind of separator: it is decimal
// only when at most two digits follow its last occurrence. A repeated period
// is always a thousands separator; a repeated comma is not.
func singleSeparator(s, sep string, last int, allowRepeat bool) string {
	if len(s)-last-1 <= 2 && (allowRepeat || strings.Count(s, sep) == 1) {
		return strings.ReplaceAll(s[:last], sep, "") + "." + s[last+1:]
	}
	return strings.ReplaceAll(s, sep, "")
}
