// Package linematch extracts transactions from free statement text, one
// start line at a time, merging wrapped description lines into the
// transaction they belong to.
package linematch

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/rules"
)

// DefaultMaxContinuations is how many lines after a start line may extend
// its description.
const DefaultMaxContinuations = 2

var (
	monthAlt = strings.Join(locale.MonthAbbreviations(), "|")

	// DefaultStart captures date, description and the first money amount.
	DefaultStart = regexp.MustCompile(`(?i)^(\d{1,2}\s+(?:` + monthAlt + `)\.?|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+((?:[-+]\s*)?\$?\s*[-+]?\d[\d.,]*[.,]\d{2})(?:[^\d]|$)`)

	// DefaultRange matches statement period headers such as "28 JUN - 28 JUL".
	DefaultRange = regexp.MustCompile(`(?i)\b(?:` + monthAlt + `)\b.*\s-\s.*\b(?:` + monthAlt + `)\b`)

	leadingYear = regexp.MustCompile(`^\d{4}\b\s*`)
)

var defaultStopKeywords = []string{
	// column headers
	"fecha", "descripcion", "valor", "saldo", "movimientos", "cuotas", "tasa",
	// page markers
	"pagina", "page", "---",
	// institution boilerplate
	"nu financiera", "bancolombia", "vigilado", "superintendencia", "total", "resumen", "extracto",
}

var defaultGlyphs = []string{"→", "↳", "»", "⇢"}

// DefaultStopKeywords returns a copy of the built-in stop keyword list.
func DefaultStopKeywords() []string { return append([]string(nil), defaultStopKeywords...) }

// DefaultGlyphs returns a copy of the built-in continuation glyphs.
func DefaultGlyphs() []string { return append([]string(nil), defaultGlyphs...) }

// Outcome is what the matcher decided about one input line.
type Outcome string

const (
	OutcomeStart        Outcome = "start"
	OutcomeContinuation Outcome = "continuation"
	OutcomeRange        Outcome = "range"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeUnparseable  Outcome = "unparseable"
)

// TraceLine records the outcome for one line.
type TraceLine struct {
	Index   int
	Line    string
	Outcome Outcome
}

// Result is the output of Match.
type Result struct {
	Transactions []model.Transaction
	Trace        []TraceLine
}

// Matcher finds transaction start lines and their continuations.
type Matcher struct {
	Start            *regexp.Regexp
	Range            *regexp.Regexp
	StopKeywords     []string
	Glyphs           []string
	MaxContinuations int
	Seps             locale.Separators
	YearHint         int
	DateFormat       string
	Dates            *locale.DateNormalizer
	Rules            *rules.Set
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithYearHint sets the year used for dates without one.
func WithYearHint(year int) Option { return func(m *Matcher) { m.YearHint = year } }

// WithSeparators fixes the amount separators instead of detecting them.
func WithSeparators(s locale.Separators) Option { return func(m *Matcher) { m.Seps = s } }

// WithDates sets the date normalizer, typically to pin the clock.
func WithDates(d *locale.DateNormalizer) Option { return func(m *Matcher) { m.Dates = d } }

// WithRules applies polarity and exclusion rules to every transaction.
func WithRules(r *rules.Set) Option { return func(m *Matcher) { m.Rules = r } }

// WithStopKeywords adds keywords to the stop list.
func WithStopKeywords(kw ...string) Option {
	return func(m *Matcher) { m.StopKeywords = append(m.StopKeywords, kw...) }
}

// WithMaxContinuations changes the continuation window.
func WithMaxContinuations(n int) Option { return func(m *Matcher) { m.MaxContinuations = n } }

// New returns a Matcher with the default patterns and lists.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		Start:            DefaultStart,
		Range:            DefaultRange,
		StopKeywords:     DefaultStopKeywords(),
		Glyphs:           DefaultGlyphs(),
		MaxContinuations: DefaultMaxContinuations,
		Dates:            locale.NewDateNormalizer(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match scans lines in order.
func (m *Matcher) Match(lines []string) Result {
	var res Result
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		groups, outcome := m.startGroups(line)
		if groups == nil {
			res.Trace = append(res.Trace, TraceLine{i, line, outcome})
			continue
		}

		amount, err := locale.ParseAmount(groups[3], m.Seps)
		if err != nil {
			res.Trace = append(res.Trace, TraceLine{i, line, OutcomeUnparseable})
			continue
		}

		extra, consumed := m.Continue(lines, i+1)
		desc := groups[2]
		if len(extra) > 0 {
			desc += " " + strings.Join(extra, " ")
		}
		res.Trace = append(res.Trace, TraceLine{i, line, OutcomeStart})
		for k := 1; k <= consumed; k++ {
			res.Trace = append(res.Trace, TraceLine{i + k, strings.TrimSpace(lines[i+k]), OutcomeContinuation})
		}
		i += consumed

		desc = CleanDescription(desc)
		amount, excluded := m.Rules.Apply(desc, amount)
		res.Transactions = append(res.Transactions, model.Transaction{
			Date:        m.dates().Normalize(groups[1], m.DateFormat, m.YearHint),
			Description: desc,
			Amount:      amount,
			Excluded:    excluded,
		})
	}
	return res
}

// IsStart reports whether line opens a transaction.
func (m *Matcher) IsStart(line string) bool {
	groups, _ := m.startGroups(strings.TrimSpace(line))
	return groups != nil
}

func (m *Matcher) startGroups(line string) ([]string, Outcome) {
	groups := m.Start.FindStringSubmatch(line)
	if groups == nil || len(groups) < 4 {
		return nil, OutcomeSkipped
	}
	if m.Range != nil && m.Range.MatchString(line) {
		return nil, OutcomeRange
	}
	return groups, OutcomeStart
}

// Continue examines up to MaxContinuations lines starting at lines[from] and
// returns the description fragments they contribute plus how many lines were
// consumed. It stops at the first line that cannot be a continuation.
func (m *Matcher) Continue(lines []string, from int) ([]string, int) {
	var frags []string
	consumed := 0
	for k := 0; k < m.MaxContinuations && from+k < len(lines); k++ {
		line := strings.TrimSpace(lines[from+k])
		if !m.continuation(line) {
			break
		}
		consumed++
		if frag := strings.TrimSpace(leadingYear.ReplaceAllString(line, "")); frag != "" {
			frags = append(frags, frag)
		}
	}
	return frags, consumed
}

func (m *Matcher) continuation(line string) bool {
	if line == "" || m.IsStart(line) || locale.HasCurrencyToken(line) {
		return false
	}
	for _, g := range m.Glyphs {
		if strings.Contains(line, g) {
			return false
		}
	}
	folded := locale.Fold(line)
	for _, kw := range m.StopKeywords {
		if containsWord(folded, locale.Fold(kw)) {
			return false
		}
	}
	return true
}

func (m *Matcher) dates() *locale.DateNormalizer {
	if m.Dates != nil {
		return m.Dates
	}
	return locale.NewDateNormalizer()
}

// CleanDescription collapses whitespace and drops a trailing currency sign
// left over from a split amount column.
func CleanDescription(desc string) string {
	return strings.TrimSpace(strings.TrimRight(locale.CollapseSpaces(desc), "$"))
}

// containsWord reports whether kw occurs in s without being glued to a
// letter or digit on a side where kw itself starts or ends with one.
func containsWord(s, kw string) bool {
	if kw == "" {
		return false
	}
	for i := 0; i <= len(s)-len(kw); {
		j := strings.Index(s[i:], kw)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(kw)
		if boundary(s, kw, start, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		i = start + size
	}
	return false
}

func boundary(s, kw string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(kw)
	last, _ := utf8.DecodeLastRuneInString(kw)
	if isWordRune(first) && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if isWordRune(last) && end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
