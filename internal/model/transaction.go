package model

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// CanonicalDate is a statement date normalized to YYYY-MM-DD, or the raw
// text verbatim when it could not be parsed.
type CanonicalDate string

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISO reports whether the date was successfully normalized.
func (d CanonicalDate) IsISO() bool {
	return isoDate.MatchString(string(d))
}

// String returns the date text.
func (d CanonicalDate) String() string { return string(d) }

// Transaction is one dated, signed movement of a statement.
type Transaction struct {
	ID          string
	Date        CanonicalDate
	Description string
	Amount      decimal.Decimal  // positive = credit, negative = debit
	Balance     *decimal.Decimal // nil when the source shows no running balance
	Excluded    bool             // kept in output, left out of totals
}

// IsCredit reports whether the transaction adds money to the account.
func (t Transaction) IsCredit() bool { return t.Amount.IsPositive() }

// IsDebit reports whether the transaction takes money from the account.
func (t Transaction) IsDebit() bool { return t.Amount.IsNegative() }

// DecimalPtr returns a pointer to a copy of d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
