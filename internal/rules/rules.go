// Package rules applies per-source polarity and exclusion rules to
// transactions.
package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ErrInvalidPattern marks a rule pattern that does not compile.
var ErrInvalidPattern = errors.New("invalid rule pattern")

// Spec is the declarative rule set of a source.
type Spec struct {
	DefaultNegative  bool     `json:"default_negative" yaml:"default_negative"`
	PositivePatterns []string `json:"positive_patterns,omitempty" yaml:"positive_patterns,omitempty"`
	IgnorePatterns   []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`
}

// IsZero reports whether the spec changes nothing.
func (s Spec) IsZero() bool {
	return !s.DefaultNegative && len(s.PositivePatterns) == 0 && len(s.IgnorePatterns) == 0
}

// Set is a compiled Spec. A nil *Set applies no rules.
type Set struct {
	defaultNegative bool
	positive        []*regexp.Regexp
	ignore          []*regexp.Regexp
}

// Compile compiles every pattern case-insensitively.
func Compile(spec Spec) (*Set, error) {
	positive, err := compileAll(spec.PositivePatterns)
	if err != nil {
		return nil, fmt.Errorf("positive pattern: %w", err)
	}
	ignore, err := compileAll(spec.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("ignore pattern: %w", err)
	}
	return &Set{defaultNegative: spec.DefaultNegative, positive: positive, ignore: ignore}, nil
}

// MustCompile is Compile for static specs. It panics on error.
func MustCompile(spec Spec) *Set {
	s, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return s
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Apply returns the signed amount for a transaction described by desc and
// whether it should be left out of totals. A positive-pattern hit forces a
// credit; otherwise default-negative turns credits into debits.
func (s *Set) Apply(desc string, amount decimal.Decimal) (decimal.Decimal, bool) {
	if s == nil {
		return amount, false
	}
	switch {
	case matchAny(s.positive, desc):
		amount = amount.Abs()
	case s.defaultNegative && amount.IsPositive():
		amount = amount.Neg()
	}
	return amount, matchAny(s.ignore, desc)
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
