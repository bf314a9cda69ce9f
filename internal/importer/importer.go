// Package importer acquires statement content from files: CSV rows with an
// encoding fallback, spreadsheet rows, and PDF text by page. It also holds
// the registry of built-in statement profiles.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoEncoding means no configured encoding produced any rows.
	ErrNoEncoding = errors.New("no encoding decoded the source")
	// ErrSourceUnavailable means the source is missing or unreadable.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrPasswordRequired means the source is protected and the password is
	// missing or wrong.
	ErrPasswordRequired = errors.New("PASSWORD_REQUIRED")
	// ErrUnsupportedFormat means the file extension is not handled.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Kind tells which normalizer path a source feeds.
type Kind string

const (
	KindRows Kind = "rows"
	KindText Kind = "text"
)

// Source is acquired statement content.
type Source struct {
	Name     string
	Ext      string
	Kind     Kind
	Rows     [][]string
	Pages    []string
	Encoding string
}

// Text returns the pages joined by newlines.
func (s *Source) Text() string {
	return strings.Join(s.Pages, "\n")
}

// Open reads path and dispatches on its extension. Encodings apply to CSV
// files only; nil selects DefaultEncodings.
func Open(path, password string, encodings []string) (*Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	src := &Source{Name: filepath.Base(path), Ext: strings.TrimPrefix(ext, ".")}

	switch ext {
	case ".csv":
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		rows, enc, err := DecodeRows(data, encodings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		src.Kind, src.Rows, src.Encoding = KindRows, rows, enc
	case ".xlsx", ".xlsm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		defer f.Close()
		rows, err := ReadSpreadsheet(f, password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		src.Kind, src.Rows = KindRows, rows
	case ".pdf":
		pages, err := ExtractPDF(path, password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		src.Kind, src.Pages = KindText, pages
	case ".txt":
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.Kind, src.Pages, src.Encoding = KindText, SplitPages(string(data)), "utf-8"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return src, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return data, nil
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// importDir is the subdirectory for statements waiting to be processed.
const importDir = "import"

// processedDir is the subdirectory for statements already processed.
const processedDir = "import/processed"

// Supported reports whether the file extension can be opened.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm", ".pdf", ".txt":
		return true
	}
	return false
}

// Scan returns supported statement files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
