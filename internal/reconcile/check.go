package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fabian-co/SelfEconomy/internal/id"
	"github.com/fabian-co/SelfEconomy/internal/model"
)

// Rule names a ledger invariant.
type Rule string

const (
	RuleTotals    Rule = "totals"
	RuleClosing   Rule = "closing"
	RuleBalance   Rule = "running-balance"
	RuleDate      Rule = "date"
	RuleID        Rule = "id"
	RulePrecision Rule = "precision"
)

// Violation describes a single invariant violation.
type Violation struct {
	Rule          Rule
	TransactionID string
	Description   string
}

func (v Violation) Error() string {
	if v.TransactionID == "" {
		return fmt.Sprintf("%s: %s", v.Rule, v.Description)
	}
	return fmt.Sprintf("%s [%s]: %s", v.Rule, v.TransactionID, v.Description)
}

// Check validates a ledger and returns every violation found.
func Check(l model.Ledger) []Violation {
	var errs []Violation
	sum := l.Meta.Summary
	credits, debits := Totals(l.Transactions)

	// Totals match the included transactions.
	if sum.TotalCredits == nil || !sum.TotalCredits.Equal(credits) {
		errs = append(errs, Violation{Rule: RuleTotals, Description: fmt.Sprintf("total credits %s != %s", show(sum.TotalCredits), credits.StringFixed(2))})
	}
	if sum.TotalDebits == nil || !sum.TotalDebits.Equal(debits) {
		errs = append(errs, Violation{Rule: RuleTotals, Description: fmt.Sprintf("total debits %s != %s", show(sum.TotalDebits), debits.StringFixed(2))})
	}

	// Closing balance follows the account kind.
	want := Closing(l.Meta.AccountKind, sum.OpeningBalance, credits, debits)
	if sum.ClosingBalance == nil || !sum.ClosingBalance.Equal(want) {
		errs = append(errs, Violation{Rule: RuleClosing, Description: fmt.Sprintf("closing balance %s != %s", show(sum.ClosingBalance), want.StringFixed(2))})
	}

	hundred := decimal.NewFromInt(100)
	seen := make(map[string]bool)
	for i, t := range l.Transactions {
		if !t.Date.IsISO() {
			errs = append(errs, Violation{Rule: RuleDate, TransactionID: t.ID, Description: fmt.Sprintf("date %q is not YYYY-MM-DD", t.Date)})
		}

		if _, _, _, err := id.Parse(t.ID); err != nil {
			errs = append(errs, Violation{Rule: RuleID, TransactionID: t.ID, Description: err.Error()})
		} else if seen[t.ID] {
			errs = append(errs, Violation{Rule: RuleID, TransactionID: t.ID, Description: "duplicate transaction ID"})
		}
		seen[t.ID] = true

		if scaled := t.Amount.Mul(hundred); !scaled.Equal(scaled.Floor()) {
			errs = append(errs, Violation{Rule: RulePrecision, TransactionID: t.ID, Description: fmt.Sprintf("amount %s has more than 2 decimal places", t.Amount)})
		}

		if i > 0 && !balanceContinues(l.Transactions[i-1], t) {
			errs = append(errs, Violation{Rule: RuleBalance, TransactionID: t.ID, Description: fmt.Sprintf("balance %s does not follow from previous balance %s", show(t.Balance), show(l.Transactions[i-1].Balance))})
		}
	}
	return errs
}

// balanceContinues accepts statements listed oldest-first or newest-first.
// Pairs without both balances are not checked.
func balanceContinues(prev, cur model.Transaction) bool {
	if prev.Balance == nil || cur.Balance == nil {
		return true
	}
	return prev.Balance.Add(cur.Amount).Equal(*cur.Balance) ||
		cur.Balance.Add(prev.Amount).Equal(*prev.Balance)
}

func show(d *decimal.Decimal) string {
	if d == nil {
		return "absent"
	}
	return d.StringFixed(2)
}
