package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/fabian-co/SelfEconomy/internal/normalize"
)

// DefaultEncodings is the CSV decoding order.
var DefaultEncodings = []string{"utf-8", "latin-1", "cp1252"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// oleMagic starts every OLE compound file, which is how encrypted workbooks
// are stored.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func charmapFor(name string) (encoding.Encoding, bool) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, true
	case "cp1252", "windows-1252":
		return charmap.Windows1252, true
	}
	return nil, false
}

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8", "utf-8-sig":
		return true
	}
	return false
}

// DecodeRows parses CSV data, trying each encoding in order until one yields
// at least one row. It returns the rows and the encoding that produced them.
func DecodeRows(data []byte, encodings []string) ([][]string, string, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	var lastErr error
	for _, enc := range encodings {
		var r io.Reader
		switch {
		case isUTF8(enc):
			if !utf8.Valid(data) {
				continue
			}
			r = bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))
		default:
			cm, ok := charmapFor(enc)
			if !ok {
				return nil, "", fmt.Errorf("unknown encoding %q", enc)
			}
			r = transform.NewReader(bytes.NewReader(data), cm.NewDecoder())
		}

		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		rows, err := cr.ReadAll()
		if err != nil {
			lastErr = err
			continue
		}
		if len(rows) > 0 {
			return rows, enc, nil
		}
	}
	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoEncoding, lastErr)
	}
	return nil, "", ErrNoEncoding
}

// ReadSpreadsheet returns the rows of the first sheet of a workbook.
func ReadSpreadsheet(r io.Reader, password string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{Password: password})
	if err != nil {
		if errors.Is(err, excelize.ErrWorkbookPassword) || bytes.HasPrefix(data, oleMagic) {
			return nil, ErrPasswordRequired
		}
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// ExtractPDF returns the text of each page, one line per text row.
func ExtractPDF(path, password string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading PDF: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	tried := false
	r, err := pdf.NewReaderEncrypted(f, info.Size(), func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	})
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrPasswordRequired
		}
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		var lines []string
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages, nil
}

// SplitPages splits extracted text into pages at page markers and form
// feeds. The markers themselves are dropped.
func SplitPages(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		pages   []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			pages = append(pages, strings.Join(current, "\n"))
		}
		current = nil
	}
	for _, line := range strings.Split(text, "\n") {
		for i, part := range strings.Split(line, "\f") {
			if i > 0 {
				flush()
			}
			if normalize.IsPageMarker(part) {
				flush()
				continue
			}
			current = append(current, part)
		}
	}
	flush()
	return pages
}
