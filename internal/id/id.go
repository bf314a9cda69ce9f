package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

// Format returns a transaction ID like "2025-01-001".
func Format(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// Parse parses "2025-01-001" into year, month, seq.
func Parse(id string) (year, month, seq int, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// Period returns the year and month of a canonical date, or 0, 0 when the
// date is not ISO.
func Period(d model.CanonicalDate) (year, month int) {
	if !d.IsISO() {
		return 0, 0
	}
	s := string(d)
	year, _ = strconv.Atoi(s[:4])
	month, _ = strconv.Atoi(s[5:7])
	return year, month
}

// Assign sets the ID of every transaction in place. Sequences restart at 1
// for each month, in slice order; unparsed dates share the 0000-00 bucket.
func Assign(txns []model.Transaction) {
	next := make(map[[2]int]int)
	for i := range txns {
		y, m := Period(txns[i].Date)
		key := [2]int{y, m}
		next[key]++
		txns[i].ID = Format(y, m, next[key])
	}
}
