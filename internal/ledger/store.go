package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

// Entry identifies a stored ledger.
type Entry struct {
	Institution string
	Name        string
	Path        string
}

// Store keeps processed ledgers under <root>/processed/<institution>/<name>.json.
type Store struct {
	root string
}

// NewStore creates a ledger Store over a workspace root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir returns the processed ledger directory.
func (s *Store) Dir() string {
	return filepath.Join(s.root, "processed")
}

// Path returns where a ledger for institution and name is stored.
func (s *Store) Path(institution, name string) string {
	return filepath.Join(s.Dir(), Slug(institution), Slug(name)+".json")
}

// Save writes l and returns the path written.
func (s *Store) Save(name string, l *model.Ledger) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("ledger name is required")
	}
	path := s.Path(l.Meta.Institution, name)
	if err := WriteJSON(path, l); err != nil {
		return "", fmt.Errorf("saving ledger %s: %w", name, err)
	}
	return path, nil
}

// Load reads a stored ledger.
func (s *Store) Load(institution, name string) (*model.Ledger, error) {
	return ReadJSON(s.Path(institution, name))
}

// List returns every stored ledger ordered by institution then name.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(s.Dir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		rel, err := filepath.Rel(s.Dir(), path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 2 {
			return nil
		}
		entries = append(entries, Entry{
			Institution: parts[0],
			Name:        strings.TrimSuffix(parts[1], ".json"),
			Path:        path,
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing ledgers: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Institution != entries[j].Institution {
			return entries[i].Institution < entries[j].Institution
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Slug lower-cases s and replaces runs of characters that are unsafe in file
// names with a single underscore.
func Slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.Trim(b.String(), "_.")
	if out == "" {
		return "unknown"
	}
	return out
}
