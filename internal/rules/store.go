package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Store provides lookup and editing over the workspace keyword list.
type Store struct {
	keywords []Keyword
}

// NewStore creates a Store from a slice of keywords.
func NewStore(keywords []Keyword) *Store {
	return &Store{keywords: keywords}
}

// KeywordsPath returns the keyword file location under a workspace root.
func KeywordsPath(root string) string {
	return filepath.Join(root, "rules", "keywords.csv")
}

// Load reads rules/keywords.csv from a workspace root. A missing file yields
// an empty store.
func Load(root string) (*Store, error) {
	f, err := os.Open(KeywordsPath(root))
	if errors.Is(err, fs.ErrNotExist) {
		return NewStore(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening keywords: %w", err)
	}
	defer f.Close()

	kws, err := ReadKeywords(f)
	if err != nil {
		return nil, fmt.Errorf("reading keywords: %w", err)
	}
	return NewStore(kws), nil
}

// All returns all keywords.
func (s *Store) All() []Keyword {
	return s.keywords
}

// ByKind returns all keywords of the given kind.
func (s *Store) ByKind(kind Kind) []Keyword {
	var result []Keyword
	for _, kw := range s.keywords {
		if kw.Kind == kind {
			result = append(result, kw)
		}
	}
	return result
}

// Add appends a keyword. It reports false when an equal pattern of the same
// kind is already present.
func (s *Store) Add(kw Keyword) bool {
	for _, existing := range s.keywords {
		if existing.Kind == kw.Kind && strings.EqualFold(existing.Pattern, kw.Pattern) {
			return false
		}
	}
	s.keywords = append(s.keywords, kw)
	return true
}

// Patterns returns the literal patterns of one kind.
func (s *Store) Patterns(kind Kind) []string {
	var out []string
	for _, kw := range s.ByKind(kind) {
		out = append(out, kw.Pattern)
	}
	return out
}

// Merge returns spec extended with the store's keywords as quoted regexps.
func (s *Store) Merge(spec Spec) Spec {
	out := Spec{
		DefaultNegative:  spec.DefaultNegative,
		PositivePatterns: append([]string(nil), spec.PositivePatterns...),
		IgnorePatterns:   append([]string(nil), spec.IgnorePatterns...),
	}
	for _, kw := range s.keywords {
		p := regexp.QuoteMeta(kw.Pattern)
		switch kw.Kind {
		case KindPositive:
			out.PositivePatterns = append(out.PositivePatterns, p)
		case KindIgnore:
			out.IgnorePatterns = append(out.IgnorePatterns, p)
		}
	}
	return out
}

// Save writes the keyword list to rules/keywords.csv.
func (s *Store) Save(root string) error {
	path := KeywordsPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating rules dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating keywords file: %w", err)
	}
	if err := WriteKeywords(f, s.keywords); err != nil {
		f.Close()
		return fmt.Errorf("writing keywords: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing keywords file: %w", err)
	}
	return nil
}
