package locale

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

// monthTable maps three-letter Spanish and English month abbreviations to
// month numbers. It is never written after init.
var monthTable = map[string]time.Month{
	"ene": time.January, "jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April, "apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August, "aug": time.August,
	"sep": time.September, "set": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December, "dec": time.December,
}

// MonthNumber resolves a month name or abbreviation ("AGO", "agosto",
// "Aug.") to its month.
func MonthNumber(name string) (time.Month, bool) {
	f := Fold(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if len([]rune(f)) < 3 {
		return 0, false
	}
	m, ok := monthTable[string([]rune(f)[:3])]
	return m, ok
}

// MonthAbbreviations returns every known abbreviation, upper-cased and sorted.
func MonthAbbreviations() []string {
	out := make([]string, 0, len(monthTable))
	for k := range monthTable {
		out = append(out, strings.ToUpper(k))
	}
	sort.Strings(out)
	return out
}

var (
	namedMonthDate = regexp.MustCompile(`(?i)^(\d{1,2})(?:\s+de)?[\s./-]*(\pL{3,})\.?(?:(?:\s+de)?[\s./-]*(\d{4}|\d{2}))?$`)
	numericDate    = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})(?:[/.-](\d{4}|\d{2}))?$`)
	isoLikeDate    = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
)

// DateNormalizer converts statement dates to canonical ISO form. Now supplies
// the current year when neither the date nor the caller carries one.
type DateNormalizer struct {
	Now func() time.Time
}

// NewDateNormalizer returns a normalizer using the wall clock.
func NewDateNormalizer() *DateNormalizer {
	return &DateNormalizer{Now: time.Now}
}

// NormalizeDate normalizes raw using the wall clock.
func NormalizeDate(raw, formatHint string, yearHint int) model.CanonicalDate {
	return NewDateNormalizer().Normalize(raw, formatHint, yearHint)
}

// Normalize returns raw as YYYY-MM-DD. formatHint starting with "MM" reads
// numeric dates month-first. yearHint fills in a missing year when positive.
// Unrecognized or impossible dates come back verbatim.
func (n *DateNormalizer) Normalize(raw, formatHint string, yearHint int) model.CanonicalDate {
	s := CollapseSpaces(raw)
	verbatim := model.CanonicalDate(strings.TrimSpace(raw))
	if s == "" {
		return verbatim
	}

	var (
		day, year int
		month     time.Month
	)

	switch {
	case isoLikeDate.MatchString(s):
		m := isoLikeDate.FindStringSubmatch(s)
		year, _ = strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		month = time.Month(mm)
		day, _ = strconv.Atoi(m[3])

	case numericDate.MatchString(s):
		m := numericDate.FindStringSubmatch(s)
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		day, month = a, time.Month(b)
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(formatHint)), "MM") {
			day, month = b, time.Month(a)
		}
		year = n.year(m[3], yearHint)

	case namedMonthDate.MatchString(s):
		m := namedMonthDate.FindStringSubmatch(s)
		var ok bool
		if month, ok = MonthNumber(m[2]); !ok {
			return verbatim
		}
		day, _ = strconv.Atoi(m[1])
		year = n.year(m[3], yearHint)

	default:
		return verbatim
	}

	if !validDate(year, month, day) {
		return verbatim
	}
	return model.CanonicalDate(fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
}

func (n *DateNormalizer) year(explicit string, hint int) int {
	if explicit != "" {
		y, _ := strconv.Atoi(explicit)
		if len(explicit) == 2 {
			y += 2000
		}
		return y
	}
	if hint > 0 {
		return hint
	}
	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	return now().Year()
}

func validDate(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && t.Month() == month
}
