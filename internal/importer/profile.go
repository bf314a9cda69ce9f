package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/normalize"
	"github.com/fabian-co/SelfEconomy/internal/template"
)

// Profile turns a source from one institution into a ledger.
type Profile interface {
	Format() string
	// Detect reports whether src looks like this profile's statements.
	Detect(src *Source) bool
	Parse(src *Source, opts normalize.Options) (*model.Ledger, error)
}

// Registry holds named profiles.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]Profile)}
}

// Register adds a profile. Panics on duplicate format.
func (r *Registry) Register(p Profile) {
	key := strings.ToLower(p.Format())
	if _, ok := r.profiles[key]; ok {
		panic("duplicate profile format: " + key)
	}
	r.profiles[key] = p
}

// Get returns the profile for format, or nil.
func (r *Registry) Get(format string) Profile {
	return r.profiles[strings.ToLower(format)]
}

// Formats returns the registered formats in order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Detect returns the first profile, in format order, that recognizes src.
func (r *Registry) Detect(src *Source) Profile {
	for _, f := range r.Formats() {
		if p := r.profiles[f]; p.Detect(src) {
			return p
		}
	}
	return nil
}

// DefaultRegistry returns a registry with all built-in profiles.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&BancolombiaProfile{})
	r.Register(&NuProfile{})
	return r
}

// BancolombiaProfile reads sectioned spreadsheet exports.
type BancolombiaProfile struct{}

// Format returns the profile name.
func (p *BancolombiaProfile) Format() string { return "bancolombia" }

// Detect matches row sources that contain a movements section marker.
func (p *BancolombiaProfile) Detect(src *Source) bool {
	if src.Kind != KindRows {
		return false
	}
	for _, row := range src.Rows {
		for _, cell := range row {
			if locale.ContainsFold(cell, "movimientos:") {
				return true
			}
		}
	}
	return false
}

// Parse normalizes the source rows.
func (p *BancolombiaProfile) Parse(src *Source, opts normalize.Options) (*model.Ledger, error) {
	if src.Kind != KindRows {
		return nil, fmt.Errorf("%w: bancolombia needs tabular rows, got %s", ErrUnsupportedFormat, src.Kind)
	}
	if opts.Institution == "" {
		opts.Institution = "Bancolombia"
	}
	return normalize.New(opts).Rows(src.Rows)
}

var nuClientName = regexp.MustCompile(`Hola,\s+([^\n!]+)`)

// NuProfile reads credit card statement text where every movement is a
// charge unless it thanks the holder for a payment.
type NuProfile struct{}

// Format returns the profile name.
func (p *NuProfile) Format() string { return "nu" }

// Detect matches text sources mentioning the issuer.
func (p *NuProfile) Detect(src *Source) bool {
	return src.Kind == KindText && locale.ContainsFold(src.Text(), "nu financiera")
}

// Parse runs the line matcher over the source pages.
func (p *NuProfile) Parse(src *Source, opts normalize.Options) (*model.Ledger, error) {
	if src.Kind != KindText {
		return nil, fmt.Errorf("%w: nu needs text pages, got %s", ErrUnsupportedFormat, src.Kind)
	}
	if opts.Institution == "" {
		opts.Institution = "NuBank"
	}
	if opts.AccountKind == "" {
		opts.AccountKind = model.AccountKindCredit
	}
	opts.Rules.DefaultNegative = true
	opts.Rules.PositivePatterns = append([]string{"gracias por tu"}, opts.Rules.PositivePatterns...)

	l, err := normalize.New(opts).Text(src.Pages)
	if err != nil {
		return nil, err
	}
	if m := nuClientName.FindStringSubmatch(src.Text()); m != nil {
		l.Meta.Client.Name = strings.TrimSpace(m[1])
	}
	return l, nil
}

// TemplateProfile applies a stored template.
type TemplateProfile struct {
	Template *template.Template
}

// Format returns the profile name.
func (p *TemplateProfile) Format() string { return "template" }

// Detect checks the template's file types and signature keywords.
func (p *TemplateProfile) Detect(src *Source) bool {
	return p.Template.AcceptsFileType(src.Ext) &&
		template.SignatureMatches(p.Template, locale.Fold(TextOf(src)))
}

// Parse applies the template to the source text. Row sources are flattened
// to one line per row.
func (p *TemplateProfile) Parse(src *Source, opts normalize.Options) (*model.Ledger, error) {
	pages := src.Pages
	if src.Kind == KindRows {
		pages = []string{TextOf(src)}
	}
	return normalize.New(opts).Template(pages, p.Template)
}

// TextOf returns the text of src; row sources become one line per row with
// cells separated by single spaces.
func TextOf(src *Source) string {
	if src.Kind == KindText {
		return src.Text()
	}
	lines := make([]string, 0, len(src.Rows))
	for _, row := range src.Rows {
		lines = append(lines, locale.CollapseSpaces(strings.Join(row, " ")))
	}
	return strings.Join(lines, "\n")
}
