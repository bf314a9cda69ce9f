package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fabian-co/SelfEconomy/internal/locale"
)

// Match thresholds for signature keywords.
const (
	matchRatio      = 0.75
	smallKeywordSet = 3
	smallSetMinHits = 2
)

// Library is a directory of templates.
type Library struct {
	dir       string
	templates []*Template
	byName    map[string]*Template
}

// LoadLibrary reads every .json, .yaml and .yml template in dir. A missing
// directory yields an empty library.
func LoadLibrary(dir string) (*Library, error) {
	lib := &Library{dir: dir, byName: map[string]*Template{}}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return lib, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading templates dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		t, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		t.FileName = e.Name()
		lib.add(t)
	}
	return lib, nil
}

func (l *Library) add(t *Template) {
	if _, ok := l.byName[t.FileName]; ok {
		for i, existing := range l.templates {
			if existing.FileName == t.FileName {
				l.templates[i] = t
			}
		}
	} else {
		l.templates = append(l.templates, t)
	}
	l.byName[t.FileName] = t
	sort.Slice(l.templates, func(i, j int) bool { return l.templates[i].FileName < l.templates[j].FileName })
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// All returns all templates ordered by file name.
func (l *Library) All() []*Template {
	return l.templates
}

// Get returns a template by file name.
func (l *Library) Get(name string) (*Template, bool) {
	t, ok := l.byName[name]
	return t, ok
}

// Save validates t, writes it as <entity>_<account>_<filetype>.json and adds
// it to the library. It returns the file name used.
func (l *Library) Save(t *Template, fileExt string) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	saved := *t
	saved.FileName = t.Name(fileExt)

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding template: %w", err)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating templates dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, saved.FileName), append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing template: %w", err)
	}
	l.add(&saved)
	return saved.FileName, nil
}

// Match returns the first template, in file name order, whose signature
// keywords identify text. A template matches when at least 75% of its
// keywords occur, or when it has at most three keywords and two occur.
// Templates without keywords never match.
func (l *Library) Match(text, fileExt string) (*Template, bool) {
	folded := locale.Fold(text)
	for _, t := range l.templates {
		if !t.AcceptsFileType(fileExt) {
			continue
		}
		if SignatureMatches(t, folded) {
			return t, true
		}
	}
	return nil, false
}

// SignatureMatches applies the keyword rule to already folded text.
func SignatureMatches(t *Template, folded string) bool {
	total := len(t.SignatureKeywords)
	if total == 0 {
		return false
	}
	hits := 0
	for _, kw := range t.SignatureKeywords {
		if k := locale.Fold(kw); k != "" && strings.Contains(folded, k) {
			hits++
		}
	}
	return float64(hits)/float64(total) >= matchRatio ||
		(total <= smallKeywordSet && hits >= smallSetMinHits)
}
