// Package normalize composes the parsing stages into full ledgers: tabular
// rows go through section classification and right-anchored splitting, free
// text through the line matcher or a template, and every ledger is
// reconciled before it is returned.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fabian-co/SelfEconomy/internal/id"
	"github.com/fabian-co/SelfEconomy/internal/linematch"
	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/reconcile"
	"github.com/fabian-co/SelfEconomy/internal/rowsplit"
	"github.com/fabian-co/SelfEconomy/internal/rules"
	"github.com/fabian-co/SelfEconomy/internal/section"
	"github.com/fabian-co/SelfEconomy/internal/template"
)

// PageBreak separates pages when they are joined into one text.
const PageBreak = "\n--- PAGE BREAK ---\n"

var pageMarker = regexp.MustCompile(`(?i)^-{3}\s*(?:p[aá]gina\s+\d+|page break)\s*-{3}$`)

// IsPageMarker reports whether line is a page boundary marker such as
// "--- PÁGINA 2 ---".
func IsPageMarker(line string) bool {
	return pageMarker.MatchString(strings.TrimSpace(line))
}

// Observer receives per-stage skip counts.
type Observer interface {
	Skipped(stage string, n int)
}

// Options configures a Normalizer.
type Options struct {
	Institution string
	AccountKind model.AccountKind
	YearHint    int
	DateFormat  string
	Separators  locale.Separators
	Classifier  section.Classifier
	Rules       rules.Spec
	Now         func() time.Time
	Logger      zerolog.Logger
	Observer    Observer
}

// Normalizer turns acquired statement content into ledgers. A Normalizer
// holds configuration only and may be reused.
type Normalizer struct {
	opts  Options
	dates *locale.DateNormalizer
}

// New returns a Normalizer. A nil classifier selects the default section
// markers and an empty account kind means debit.
func New(opts Options) *Normalizer {
	if opts.Classifier == nil {
		opts.Classifier = section.NewMarkerClassifier()
	}
	if opts.AccountKind == "" {
		opts.AccountKind = model.AccountKindDebit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Normalizer{opts: opts, dates: &locale.DateNormalizer{Now: now}}
}

// Rows normalizes a tabular source.
func (n *Normalizer) Rows(rows [][]string) (*model.Ledger, error) {
	set, err := rules.Compile(n.opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}

	classified := section.Split(rows, n.opts.Classifier)
	sp := &rowsplit.Splitter{
		Seps:       n.opts.Separators,
		YearHint:   n.opts.YearHint,
		DateFormat: n.opts.DateFormat,
		Dates:      n.dates,
	}
	res := sp.Apply(classified)
	n.skipped("rows", len(res.Skipped))
	for _, s := range res.Skipped {
		n.opts.Logger.Debug().Int("row", s.Index).Str("reason", s.Reason).Msg("row skipped")
	}

	for i := range res.Transactions {
		t := &res.Transactions[i]
		t.Amount, t.Excluded = set.Apply(t.Description, t.Amount)
	}

	l := &model.Ledger{Meta: res.Meta, Transactions: res.Transactions}
	l.Meta.Institution = n.opts.Institution
	l.Meta.AccountKind = n.opts.AccountKind

	n.opts.Logger.Info().
		Int("rows", len(rows)).
		Int("classified", len(classified)).
		Int("transactions", len(l.Transactions)).
		Int("skipped", len(res.Skipped)).
		Msg("rows normalized")
	return n.finish(l), nil
}

// Text normalizes free text, one string per page, with the line matcher.
func (n *Normalizer) Text(pages []string) (*model.Ledger, error) {
	set, err := rules.Compile(n.opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}

	lines := Lines(pages)
	m := linematch.New(
		linematch.WithDates(n.dates),
		linematch.WithYearHint(n.opts.YearHint),
		linematch.WithSeparators(n.opts.Separators),
		linematch.WithRules(set),
	)
	m.DateFormat = n.opts.DateFormat
	res := m.Match(lines)

	unparseable := 0
	for _, tl := range res.Trace {
		if tl.Outcome == linematch.OutcomeUnparseable {
			unparseable++
			n.opts.Logger.Debug().Int("line", tl.Index).Str("text", tl.Line).Msg("unparseable amount")
		}
	}
	n.skipped("lines", unparseable)

	l := &model.Ledger{
		Meta:         model.MetaInfo{Institution: n.opts.Institution, AccountKind: n.opts.AccountKind},
		Transactions: res.Transactions,
	}
	n.opts.Logger.Info().
		Int("pages", len(pages)).
		Int("lines", len(lines)).
		Int("transactions", len(l.Transactions)).
		Int("unparseable", unparseable).
		Msg("text normalized")
	return n.finish(l), nil
}

// Template normalizes free text with a template. Template errors are returned
// before any matching happens. Options.Rules, when set, are appended to the
// template's own rules.
func (n *Normalizer) Template(pages []string, t *template.Template) (*model.Ledger, error) {
	merged := *t
	merged.Rules = mergeRules(t.Rules, n.opts.Rules)

	engine, err := template.Compile(&merged, n.dates)
	if err != nil {
		return nil, fmt.Errorf("compiling template %s: %w", t.Name(""), err)
	}

	res := engine.Apply(strings.Join(pages, PageBreak))
	n.skipped("template", res.Skipped)

	l := &model.Ledger{
		Meta: model.MetaInfo{
			Institution: t.Entity,
			AccountKind: t.Kind(),
		},
		Transactions: res.Transactions,
	}
	if l.Meta.Institution == "" {
		l.Meta.Institution = n.opts.Institution
	}
	n.opts.Logger.Info().
		Str("template", t.Name("")).
		Int("transactions", len(l.Transactions)).
		Int("skipped", res.Skipped).
		Msg("template applied")
	return n.finish(l), nil
}

func (n *Normalizer) finish(l *model.Ledger) *model.Ledger {
	id.Assign(l.Transactions)
	reconcile.Apply(l)
	if excluded := l.ExcludedCount(); excluded > 0 {
		n.opts.Logger.Debug().Int("excluded", excluded).Msg("transactions excluded from totals")
	}
	return l
}

func (n *Normalizer) skipped(stage string, count int) {
	if n.opts.Observer != nil && count > 0 {
		n.opts.Observer.Skipped(stage, count)
	}
}

func mergeRules(base, extra rules.Spec) rules.Spec {
	return rules.Spec{
		DefaultNegative:  base.DefaultNegative || extra.DefaultNegative,
		PositivePatterns: append(append([]string(nil), base.PositivePatterns...), extra.PositivePatterns...),
		IgnorePatterns:   append(append([]string(nil), base.IgnorePatterns...), extra.IgnorePatterns...),
	}
}

// Lines splits pages into lines, inserting a page marker between pages so
// descriptions never continue across a page boundary.
func Lines(pages []string) []string {
	var lines []string
	for i, p := range pages {
		if i > 0 {
			lines = append(lines, strings.Trim(PageBreak, "\n"))
		}
		for _, line := range strings.Split(strings.ReplaceAll(p, "\r\n", "\n"), "\n") {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return lines
}

// Analyze returns the sorted unique descriptions of l.
func Analyze(l *model.Ledger) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range l.Transactions {
		d := locale.CollapseSpaces(t.Description)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// AnalyzeRows lists the descriptions found in a tabular source.
func (n *Normalizer) AnalyzeRows(rows [][]string) ([]string, error) {
	l, err := n.Rows(rows)
	if err != nil {
		return nil, err
	}
	return Analyze(l), nil
}

// AnalyzeText lists the descriptions found in free text.
func (n *Normalizer) AnalyzeText(pages []string) ([]string, error) {
	l, err := n.Text(pages)
	if err != nil {
		return nil, err
	}
	return Analyze(l), nil
}
