// Package template applies declarative, per-institution statement templates:
// a regular expression, a mapping from capture groups to transaction fields,
// locale settings and polarity rules.
package template

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"dario.cat/mergo"
	"github.com/ghodss/yaml"

	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/rules"
)

// ErrInvalidTemplate marks a template that cannot be applied.
var ErrInvalidTemplate = errors.New("invalid template")

// GroupMapping holds 1-based capture group indices.
type GroupMapping struct {
	Date        int `json:"date"`
	Description int `json:"description"`
	Value       int `json:"value"`
}

// Template is a statement layout description. It is not modified after Load.
type Template struct {
	Entity             string        `json:"entity"`
	AccountType        string        `json:"account_type"`
	FileTypes          []string      `json:"file_types,omitempty"`
	SignatureKeywords  []string      `json:"signature_keywords,omitempty"`
	Pattern            string        `json:"transaction_regex"`
	GroupMapping       *GroupMapping `json:"group_mapping"`
	DateFormat         string        `json:"date_format,omitempty"`
	YearHint           *int          `json:"year_hint,omitempty"`
	DecimalSeparator   string        `json:"decimal_separator,omitempty"`
	ThousandSeparator  string        `json:"thousand_separator,omitempty"`
	MergeContinuations bool          `json:"merge_continuations,omitempty"`
	Rules              rules.Spec    `json:"rules"`
	FileName           string        `json:"fileName,omitempty"`
}

// Defaults returns the values used for fields a template leaves empty.
func Defaults() Template {
	return Template{
		AccountType:       string(model.AccountKindDebit),
		DecimalSeparator:  ",",
		ThousandSeparator: ".",
	}
}

// DefaultGroupMapping fills the indices a group_mapping leaves out.
func DefaultGroupMapping() GroupMapping {
	return GroupMapping{Date: 1, Description: 2, Value: 3}
}

// Parse decodes a JSON or YAML template and fills in defaults. A present
// group_mapping gets DefaultGroupMapping for its missing keys; an absent one
// stays absent and fails Validate.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrInvalidTemplate, err)
	}
	if err := mergo.Merge(&t, Defaults()); err != nil {
		return nil, fmt.Errorf("applying template defaults: %w", err)
	}
	if t.GroupMapping != nil {
		if err := mergo.Merge(t.GroupMapping, DefaultGroupMapping()); err != nil {
			return nil, fmt.Errorf("applying group_mapping defaults: %w", err)
		}
	}
	return &t, nil
}

// Load reads a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate checks that the template can be compiled and applied.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Pattern) == "" {
		return fmt.Errorf("%w: missing transaction_regex", ErrInvalidTemplate)
	}
	if t.GroupMapping == nil {
		return fmt.Errorf("%w: missing group_mapping", ErrInvalidTemplate)
	}
	gm := t.GroupMapping
	if gm.Date < 1 || gm.Description < 1 || gm.Value < 1 {
		return fmt.Errorf("%w: group_mapping indices must be 1 or greater", ErrInvalidTemplate)
	}
	if _, err := model.ParseAccountKind(t.AccountType); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	re, err := regexp.Compile(t.Pattern)
	if err != nil {
		return fmt.Errorf("%w: transaction_regex: %v", ErrInvalidTemplate, err)
	}
	if n := re.NumSubexp(); gm.Date > n || gm.Description > n || gm.Value > n {
		return fmt.Errorf("%w: group_mapping refers past the %d groups of transaction_regex", ErrInvalidTemplate, n)
	}
	if _, err := rules.Compile(t.Rules); err != nil {
		return fmt.Errorf("%w: rules: %v", ErrInvalidTemplate, err)
	}
	return nil
}

// Separators returns the configured amount separators.
func (t *Template) Separators() locale.Separators {
	return locale.Separators{Decimal: t.DecimalSeparator, Thousand: t.ThousandSeparator}
}

// Kind returns the template's account kind, defaulting to debit.
func (t *Template) Kind() model.AccountKind {
	k, err := model.ParseAccountKind(t.AccountType)
	if err != nil {
		return model.AccountKindDebit
	}
	return k
}

// Year returns the year hint or 0.
func (t *Template) Year() int {
	if t.YearHint == nil {
		return 0
	}
	return *t.YearHint
}

// Name returns the file name the template is stored under:
// <entity>_<account>_<filetype>.json.
func (t *Template) Name(fileExt string) string {
	if t.FileName != "" {
		return t.FileName
	}
	entity := strings.Join(strings.Fields(strings.ToLower(t.Entity)), "_")
	fileType := strings.TrimPrefix(strings.ToLower(fileExt), ".")
	if len(t.FileTypes) > 0 {
		fileType = t.FileTypes[0]
	}
	if fileType == "" {
		fileType = "generic"
	}
	return fmt.Sprintf("%s_%s_%s.json", entity, strings.ToLower(t.AccountType), fileType)
}

// AcceptsFileType reports whether the template applies to files with the
// given extension. Templates listing no file types accept everything.
func (t *Template) AcceptsFileType(ext string) bool {
	if len(t.FileTypes) == 0 || ext == "" {
		return true
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, ft := range t.FileTypes {
		if strings.EqualFold(ft, ext) {
			return true
		}
	}
	return false
}
