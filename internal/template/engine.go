package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fabian-co/SelfEconomy/internal/linematch"
	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/rules"
)

// Engine is a compiled template.
type Engine struct {
	tmpl    Template
	pattern *regexp.Regexp
	rules   *rules.Set
	dates   *locale.DateNormalizer
	cont    *linematch.Matcher
}

// Compile validates t and prepares it for matching. The pattern runs in
// multi-line mode so ^ and $ match at line boundaries.
func Compile(t *Template, dates *locale.DateNormalizer) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	pattern, err := regexp.Compile("(?m)" + t.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction_regex: %v", ErrInvalidTemplate, err)
	}
	set, err := rules.Compile(t.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: rules: %v", ErrInvalidTemplate, err)
	}
	if dates == nil {
		dates = locale.NewDateNormalizer()
	}

	cont := linematch.New()
	cont.Start = pattern

	return &Engine{tmpl: *t, pattern: pattern, rules: set, dates: dates, cont: cont}, nil
}

// Template returns a copy of the compiled template.
func (e *Engine) Template() Template { return e.tmpl }

// Result is the output of Apply.
type Result struct {
	Transactions []model.Transaction
	Skipped      int
}

// Apply runs the pattern over the whole text. Matches whose value cannot be
// parsed are counted in Skipped and do not stop the sweep.
func (e *Engine) Apply(text string) Result {
	var res Result
	gm := e.tmpl.GroupMapping
	for _, loc := range e.pattern.FindAllStringSubmatchIndex(text, -1) {
		date, okDate := group(text, loc, gm.Date)
		desc, okDesc := group(text, loc, gm.Description)
		raw, okVal := group(text, loc, gm.Value)
		if !okDate || !okDesc || !okVal {
			res.Skipped++
			continue
		}

		amount, err := locale.ParseAmount(raw, e.tmpl.Separators())
		if err != nil {
			res.Skipped++
			continue
		}

		if e.tmpl.MergeContinuations {
			if extra, _ := e.cont.Continue(linesAfter(text, loc[1]), 0); len(extra) > 0 {
				desc += " " + strings.Join(extra, " ")
			}
		}
		desc = linematch.CleanDescription(desc)

		amount, excluded := e.rules.Apply(desc, amount)
		res.Transactions = append(res.Transactions, model.Transaction{
			Date:        e.dates.Normalize(date, e.tmpl.DateFormat, e.tmpl.Year()),
			Description: desc,
			Amount:      amount,
			Excluded:    excluded,
		})
	}
	return res
}

// PreviewMatch is one raw match with its mapped groups.
type PreviewMatch struct {
	Text        string `json:"text"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// Preview returns up to n raw matches without parsing them. n <= 0 means all.
func (e *Engine) Preview(text string, n int) []PreviewMatch {
	if n <= 0 {
		n = -1
	}
	gm := e.tmpl.GroupMapping
	var out []PreviewMatch
	for _, loc := range e.pattern.FindAllStringSubmatchIndex(text, n) {
		p := PreviewMatch{Text: text[loc[0]:loc[1]]}
		p.Date, _ = group(text, loc, gm.Date)
		p.Description, _ = group(text, loc, gm.Description)
		p.Value, _ = group(text, loc, gm.Value)
		out = append(out, p)
	}
	return out
}

// group returns the trimmed text of capture group i, reporting false when the
// group did not participate in the match.
func group(text string, loc []int, i int) (string, bool) {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return "", false
	}
	return strings.TrimSpace(text[loc[2*i]:loc[2*i+1]]), true
}

// linesAfter returns the lines that follow the one containing offset.
func linesAfter(text string, offset int) []string {
	if offset > 0 && text[offset-1] == '\n' {
		return strings.Split(text[offset:], "\n")
	}
	rest := text[offset:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return nil
	}
	return strings.Split(rest[nl+1:], "\n")
}
