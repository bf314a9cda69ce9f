// Package reconcile recomputes statement totals from the transactions that
// count toward them, and checks a ledger against its invariants.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
)

// Totals sums the included transactions: credits are positive amounts,
// debits the absolute value of negative ones.
func Totals(txns []model.Transaction) (credits, debits decimal.Decimal) {
	credits, debits = decimal.Zero, decimal.Zero
	for _, t := range txns {
		if t.Excluded {
			continue
		}
		switch {
		case t.IsCredit():
			credits = credits.Add(t.Amount)
		case t.IsDebit():
			debits = debits.Add(t.Amount.Abs())
		}
	}
	return credits, debits
}

// Closing returns the closing balance implied by the totals. Debit accounts
// carry the opening balance forward; credit accounts report what is owed.
func Closing(kind model.AccountKind, opening *decimal.Decimal, credits, debits decimal.Decimal) decimal.Decimal {
	if kind == model.AccountKindCredit {
		return debits.Neg()
	}
	open := decimal.Zero
	if opening != nil {
		open = *opening
	}
	return open.Add(credits).Sub(debits)
}

// Reconcile builds a summary from txns. Computed totals are authoritative;
// only the opening balance is taken from the caller.
func Reconcile(kind model.AccountKind, opening *decimal.Decimal, txns []model.Transaction) model.Summary {
	credits, debits := Totals(txns)
	return model.Summary{
		OpeningBalance: opening,
		TotalCredits:   model.DecimalPtr(credits),
		TotalDebits:    model.DecimalPtr(debits),
		ClosingBalance: model.DecimalPtr(Closing(kind, opening, credits, debits)),
	}
}

// Apply replaces the ledger's totals and closing balance with reconciled
// values. Parsed figures that cannot be derived from transactions (average
// balance, suggested limit, interest, withholding) are kept.
func Apply(l *model.Ledger) {
	parsed := l.Meta.Summary
	s := Reconcile(l.Meta.AccountKind, parsed.OpeningBalance, l.Included())
	s.AverageBalance = parsed.AverageBalance
	s.SuggestedLimit = parsed.SuggestedLimit
	s.Interest = parsed.Interest
	s.Withholding = parsed.Withholding
	l.Meta.Summary = s
}

// Recalculate re-marks exclusion using keywords, matched case- and
// accent-insensitively against descriptions, and reconciles again. Any
// earlier exclusion is replaced.
func Recalculate(l *model.Ledger, keywords []string) {
	for i := range l.Transactions {
		l.Transactions[i].Excluded = matchesAny(l.Transactions[i].Description, keywords)
	}
	l.Meta.ExclusionKeywords = append([]string(nil), keywords...)
	Apply(l)
}

// Resign forces the sign of every transaction whose description contains
// keyword: the absolute amount when positive, its negation otherwise. It
// reconciles again and returns how many transactions matched.
func Resign(l *model.Ledger, keyword string, positive bool) int {
	n := 0
	for i := range l.Transactions {
		t := &l.Transactions[i]
		if !matchesAny(t.Description, []string{keyword}) {
			continue
		}
		t.Amount = t.Amount.Abs()
		if !positive {
			t.Amount = t.Amount.Neg()
		}
		n++
	}
	Apply(l)
	return n
}

func matchesAny(desc string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && locale.ContainsFold(desc, kw) {
			return true
		}
	}
	return false
}
