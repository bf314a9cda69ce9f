package model

import "github.com/shopspring/decimal"

// Summary holds the aggregate figures of a statement. Absent figures are nil.
type Summary struct {
	OpeningBalance *decimal.Decimal
	TotalCredits   *decimal.Decimal
	TotalDebits    *decimal.Decimal
	ClosingBalance *decimal.Decimal
	AverageBalance *decimal.Decimal
	SuggestedLimit *decimal.Decimal
	Interest       *decimal.Decimal
	Withholding    *decimal.Decimal
}

// IsEmpty reports whether no figure is present.
func (s Summary) IsEmpty() bool {
	for _, f := range s.Figures() {
		if f != nil {
			return false
		}
	}
	return true
}

// Figures returns pointers to every figure in printed statement order:
// opening, credits, debits, closing, average, limit, interest, withholding.
func (s *Summary) Figures() []*decimal.Decimal {
	return []*decimal.Decimal{
		s.OpeningBalance, s.TotalCredits, s.TotalDebits, s.ClosingBalance,
		s.AverageBalance, s.SuggestedLimit, s.Interest, s.Withholding,
	}
}

// Slots returns the addresses of every figure in the same order as Figures.
func (s *Summary) Slots() []**decimal.Decimal {
	return []**decimal.Decimal{
		&s.OpeningBalance, &s.TotalCredits, &s.TotalDebits, &s.ClosingBalance,
		&s.AverageBalance, &s.SuggestedLimit, &s.Interest, &s.Withholding,
	}
}

// MetaInfo describes the institution, holder and account of a statement.
type MetaInfo struct {
	Institution string
	AccountKind AccountKind
	Client      Client
	Account     Account
	Summary     Summary

	// ExclusionKeywords are the keywords last used to re-mark exclusions.
	ExclusionKeywords []string
}

// Ledger is the normalized output of one statement.
type Ledger struct {
	Meta         MetaInfo
	Transactions []Transaction
}

// Included returns the transactions that count toward totals.
func (l *Ledger) Included() []Transaction {
	var out []Transaction
	for _, t := range l.Transactions {
		if !t.Excluded {
			out = append(out, t)
		}
	}
	return out
}

// ExcludedCount returns how many transactions are marked excluded.
func (l *Ledger) ExcludedCount() int {
	n := 0
	for _, t := range l.Transactions {
		if t.Excluded {
			n++
		}
	}
	return n
}
