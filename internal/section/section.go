// Package section walks tabular statement rows and tags each one with the
// statement section it belongs to.
package section

import (
	"strings"
	"unicode/utf8"

	"github.com/fabian-co/SelfEconomy/internal/locale"
)

// Key identifies a statement section.
type Key int

const (
	None Key = iota
	Client
	Account
	Summary
	Movements
)

var keyNames = [...]string{"none", "client", "account", "summary", "movements"}

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return "unknown"
	}
	return keyNames[k]
}

//go:generate mockgen -source=section.go -destination=mocks/mock_classifier.go -package=mocks Classifier

// Classifier decides whether a row opens a new section.
type Classifier interface {
	Classify(row []string) (Key, bool)
}

// Marker is a section heading as printed on the statement.
type Marker struct {
	Text string
	Key  Key
}

// DefaultMarkers returns the Bancolombia-style section headings.
func DefaultMarkers() []Marker {
	return []Marker{
		{Text: "Información Cliente:", Key: Client},
		{Text: "Información General:", Key: Account},
		{Text: "Resumen:", Key: Summary},
		{Text: "Movimientos:", Key: Movements},
	}
}

// minReverseMatch is the shortest cell allowed to match as a substring of a
// marker. Anything shorter ("a", "de") would hit every marker.
const minReverseMatch = 3

// MarkerClassifier classifies rows by comparing their first non-empty cell
// with a list of markers, ignoring case, accents and a trailing colon.
type MarkerClassifier struct {
	Markers []Marker
}

// NewMarkerClassifier returns a classifier over markers, or the default
// markers when none are given.
func NewMarkerClassifier(markers ...Marker) *MarkerClassifier {
	if len(markers) == 0 {
		markers = DefaultMarkers()
	}
	return &MarkerClassifier{Markers: markers}
}

// Classify implements Classifier.
func (c *MarkerClassifier) Classify(row []string) (Key, bool) {
	cell := firstNonEmpty(row)
	if cell == "" {
		return None, false
	}
	folded := foldMarker(cell)
	for _, m := range c.Markers {
		marker := foldMarker(m.Text)
		if marker == "" {
			continue
		}
		if strings.Contains(folded, marker) {
			return m.Key, true
		}
		if utf8.RuneCountInString(folded) >= minReverseMatch && strings.Contains(marker, folded) {
			return m.Key, true
		}
	}
	return None, false
}

func foldMarker(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(locale.Fold(s), ":"))
}

// Row is a classified data row.
type Row struct {
	Section Key
	Cells   []string // non-empty trimmed cells
	Index   int      // position in the input
}

// Split walks rows and returns every data row tagged with its section.
// The row right after a marker is that section's header, even when blank.
// Blank rows, marker rows, header rows and any repeat of the header are
// dropped, as is everything before the first marker.
func Split(rows [][]string, c Classifier) []Row {
	var (
		out        []Row
		current    = None
		wantHeader bool
		header     string
	)
	for i, raw := range rows {
		cells := Cells(raw)
		if wantHeader {
			wantHeader = false
			if len(cells) > 0 {
				header = cells[0]
			}
			continue
		}
		if len(cells) == 0 {
			continue
		}
		if key, ok := c.Classify(raw); ok {
			current = key
			wantHeader = true
			header = ""
			continue
		}
		if current == None {
			continue
		}
		if header != "" && strings.EqualFold(cells[0], header) {
			continue
		}
		out = append(out, Row{Section: current, Cells: cells, Index: i})
	}
	return out
}

// Cells returns the trimmed non-empty cells of row.
func Cells(row []string) []string {
	var out []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func firstNonEmpty(row []string) string {
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}
