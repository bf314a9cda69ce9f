package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabian-co/SelfEconomy/internal/id"
	"github.com/fabian-co/SelfEconomy/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	return model.DecimalPtr(dec(s))
}

func txn(date, desc, amount string, excluded bool) model.Transaction {
	return model.Transaction{Date: model.CanonicalDate(date), Description: desc, Amount: dec(amount), Excluded: excluded}
}

func TestTotalsIgnoreExcluded(t *testing.T) {
	txns := []model.Transaction{
		txn("2025-01-05", "Nomina", "2000.00", false),
		txn("2025-01-06", "Traslado propio", "500.00", true),
		txn("2025-01-07", "Compra", "-120.50", false),
		txn("2025-01-08", "Pago tarjeta", "-300.00", true),
		txn("2025-01-09", "Ajuste", "0", false),
	}

	credits, debits := Totals(txns)
	assert.True(t, dec("2000").Equal(credits))
	assert.True(t, dec("120.50").Equal(debits))

	var wantCredits, wantDebits decimal.Decimal
	for _, tx := range txns {
		if tx.Excluded {
			continue
		}
		if tx.Amount.IsPositive() {
			wantCredits = wantCredits.Add(tx.Amount)
		} else {
			wantDebits = wantDebits.Add(tx.Amount.Abs())
		}
	}
	assert.True(t, wantCredits.Equal(credits))
	assert.True(t, wantDebits.Equal(debits))
}

func TestReconcileDebit(t *testing.T) {
	s := Reconcile(model.AccountKindDebit, ptr("1000"), []model.Transaction{
		txn("2025-01-05", "Abono", "200", false),
		txn("2025-01-06", "Compra", "-50", false),
	})
	assert.True(t, dec("1000").Equal(*s.OpeningBalance))
	assert.True(t, dec("200").Equal(*s.TotalCredits))
	assert.True(t, dec("50").Equal(*s.TotalDebits))
	assert.True(t, dec("1150").Equal(*s.ClosingBalance))
}

func TestReconcileDebitWithoutOpening(t *testing.T) {
	s := Reconcile(model.AccountKindDebit, nil, []model.Transaction{txn("2025-01-05", "Abono", "200", false)})
	assert.Nil(t, s.OpeningBalance)
	assert.True(t, dec("200").Equal(*s.ClosingBalance))
}

func TestReconcileCredit(t *testing.T) {
	s := Reconcile(model.AccountKindCredit, nil, []model.Transaction{
		txn("2025-01-05", "Gracias por tu pago", "300", false),
		txn("2025-01-06", "Compra", "-80", false),
		txn("2025-01-07", "Compra", "-20", false),
	})
	assert.True(t, dec("300").Equal(*s.TotalCredits))
	assert.True(t, dec("-100").Equal(*s.ClosingBalance))
}

func TestApplyOverridesParsedTotals(t *testing.T) {
	l := &model.Ledger{
		Meta: model.MetaInfo{
			AccountKind: model.AccountKindDebit,
			Summary: model.Summary{
				OpeningBalance: ptr("100"),
				TotalCredits:   ptr("999"),
				TotalDebits:    ptr("999"),
				ClosingBalance: ptr("999"),
				AverageBalance: ptr("120"),
				Interest:       ptr("0.35"),
			},
		},
		Transactions: []model.Transaction{
			txn("2025-01-05", "Abono", "50", false),
			txn("2025-01-06", "Traslado", "-70", true),
		},
	}
	Apply(l)

	s := l.Meta.Summary
	assert.True(t, dec("50").Equal(*s.TotalCredits))
	assert.True(t, dec("0").Equal(*s.TotalDebits))
	assert.True(t, dec("150").Equal(*s.ClosingBalance))
	assert.True(t, dec("120").Equal(*s.AverageBalance))
	assert.True(t, dec("0.35").Equal(*s.Interest))
	assert.Nil(t, s.SuggestedLimit)
}

func TestRecalculate(t *testing.T) {
	l := &model.Ledger{
		Meta: model.MetaInfo{AccountKind: model.AccountKindDebit, Summary: model.Summary{OpeningBalance: ptr("0")}},
		Transactions: []model.Transaction{
			txn("2025-01-05", "ABONO INTERÉS", "10", true),
			txn("2025-01-06", "Pago PSE Tarjeta", "-400", false),
			txn("2025-01-07", "Compra", "-25", false),
		},
	}
	Recalculate(l, []string{"pago pse", ""})

	assert.False(t, l.Transactions[0].Excluded)
	assert.True(t, l.Transactions[1].Excluded)
	assert.True(t, dec("10").Equal(*l.Meta.Summary.TotalCredits))
	assert.True(t, dec("25").Equal(*l.Meta.Summary.TotalDebits))
	assert.True(t, dec("-15").Equal(*l.Meta.Summary.ClosingBalance))
}

func TestResign(t *testing.T) {
	l := &model.Ledger{
		Meta: model.MetaInfo{AccountKind: model.AccountKindCredit},
		Transactions: []model.Transaction{
			txn("2025-01-05", "Gracias por tu pago", "-300", false),
			txn("2025-01-06", "Compra Éxito", "80", false),
			txn("2025-01-07", "Compra exito", "-20", false),
		},
	}

	assert.Equal(t, 1, Resign(l, "GRACIAS POR TU", true))
	assert.True(t, dec("300").Equal(l.Transactions[0].Amount))

	assert.Equal(t, 2, Resign(l, "compra exito", false))
	assert.True(t, dec("-80").Equal(l.Transactions[1].Amount))
	assert.True(t, dec("-20").Equal(l.Transactions[2].Amount))

	assert.True(t, dec("300").Equal(*l.Meta.Summary.TotalCredits))
	assert.True(t, dec("100").Equal(*l.Meta.Summary.TotalDebits))
	assert.True(t, dec("-100").Equal(*l.Meta.Summary.ClosingBalance))

	assert.Zero(t, Resign(l, "", true))
}

func validLedger() model.Ledger {
	l := model.Ledger{
		Meta: model.MetaInfo{AccountKind: model.AccountKindDebit, Summary: model.Summary{OpeningBalance: ptr("1000")}},
		Transactions: []model.Transaction{
			{Date: "2025-01-05", Description: "Pago", Amount: dec("-120"), Balance: ptr("880")},
			{Date: "2025-01-06", Description: "Abono", Amount: dec("50"), Balance: ptr("930")},
			{Date: "2025-01-07", Description: "Sin saldo", Amount: dec("-10")},
		},
	}
	id.Assign(l.Transactions)
	Apply(&l)
	return l
}

func TestCheckValid(t *testing.T) {
	assert.Empty(t, Check(validLedger()))
}

func TestCheckNewestFirstBalances(t *testing.T) {
	l := model.Ledger{
		Meta: model.MetaInfo{AccountKind: model.AccountKindDebit},
		Transactions: []model.Transaction{
			{Date: "2025-01-06", Description: "Abono", Amount: dec("50"), Balance: ptr("930")},
			{Date: "2025-01-05", Description: "Pago", Amount: dec("-120"), Balance: ptr("880")},
		},
	}
	id.Assign(l.Transactions)
	Apply(&l)
	assert.Empty(t, Check(l))
}

func TestCheckViolations(t *testing.T) {
	l := validLedger()
	l.Meta.Summary.TotalCredits = ptr("1")
	l.Meta.Summary.ClosingBalance = nil
	l.Transactions[1].Balance = ptr("1")
	l.Transactions[2].Date = "07/01"
	l.Transactions[2].ID = l.Transactions[0].ID
	l.Transactions[0].Amount = dec("-120.001")
	l.Meta.Summary.TotalDebits = ptr("130.001")

	rules := map[Rule]int{}
	for _, v := range Check(l) {
		rules[v.Rule]++
		assert.NotEmpty(t, v.Error())
	}
	assert.Equal(t, 1, rules[RuleTotals])
	assert.Equal(t, 1, rules[RuleClosing])
	assert.Equal(t, 1, rules[RuleBalance])
	assert.Equal(t, 1, rules[RuleDate])
	assert.Equal(t, 1, rules[RuleID])
	assert.Equal(t, 1, rules[RulePrecision])
}

func TestCheckInvalidID(t *testing.T) {
	l := validLedger()
	l.Transactions[0].ID = ""
	v := Check(l)
	require.Len(t, v, 1)
	assert.Equal(t, RuleID, v[0].Rule)
}
