package rules

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Kind says what a keyword does when it occurs in a description.
type Kind string

const (
	KindIgnore   Kind = "ignore"
	KindPositive Kind = "positive"
)

// ParseKind validates a user-supplied keyword kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIgnore, KindPositive:
		return k, nil
	default:
		return "", fmt.Errorf("unknown keyword kind %q (want ignore or positive)", s)
	}
}

// Keyword is one row of rules/keywords.csv.
type Keyword struct {
	Kind    Kind
	Pattern string // literal text, matched case-insensitively
	Note    string
}

const (
	numFields  = 3
	colKind    = 0
	colPattern = 1
	colNote    = 2
)

// ReadKeywords reads rules/keywords.csv.
func ReadKeywords(r io.Reader) ([]Keyword, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading keywords CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var keywords []Keyword
	for i, rec := range records[1:] {
		kw, err := UnmarshalKeyword(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, nil
}

// WriteKeywords writes rules/keywords.csv.
func WriteKeywords(w io.Writer, keywords []Keyword) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"kind", "pattern", "note"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, kw := range keywords {
		if err := cw.Write(MarshalKeyword(kw)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalKeyword converts a Keyword to a CSV row.
func MarshalKeyword(kw Keyword) []string {
	row := make([]string, numFields)
	row[colKind] = string(kw.Kind)
	row[colPattern] = kw.Pattern
	row[colNote] = kw.Note
	return row
}

// UnmarshalKeyword converts a CSV row to a Keyword.
func UnmarshalKeyword(record []string) (Keyword, error) {
	if len(record) != numFields {
		return Keyword{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	kind, err := ParseKind(record[colKind])
	if err != nil {
		return Keyword{}, err
	}
	if strings.TrimSpace(record[colPattern]) == "" {
		return Keyword{}, fmt.Errorf("empty pattern")
	}

	return Keyword{
		Kind:    kind,
		Pattern: record[colPattern],
		Note:    record[colNote],
	}, nil
}
