package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalDateIsISO(t *testing.T) {
	tests := []struct {
		date CanonicalDate
		want bool
	}{
		{"2025-08-18", true},
		{"18 AGO", false},
		{"2025-8-18", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.date.IsISO(), "IsISO(%q)", tt.date)
	}
}

func TestParseAccountKind(t *testing.T) {
	tests := []struct {
		in   string
		want AccountKind
	}{
		{"", AccountKindDebit},
		{"debit", AccountKindDebit},
		{"Crédito", AccountKindCredit},
		{"CREDIT", AccountKindCredit},
	}
	for _, tt := range tests {
		got, err := ParseAccountKind(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ParseAccountKind(%q)", tt.in)
	}

	_, err := ParseAccountKind("brokerage")
	assert.Error(t, err)
}

func TestSummaryIsEmpty(t *testing.T) {
	var s Summary
	assert.True(t, s.IsEmpty())

	s.Interest = DecimalPtr(decimal.NewFromInt(3))
	assert.False(t, s.IsEmpty())
}

func TestSummarySlotsMatchFigures(t *testing.T) {
	var s Summary
	slots := s.Slots()
	for i, slot := range slots {
		*slot = DecimalPtr(decimal.NewFromInt(int64(i)))
	}
	for i, f := range s.Figures() {
		require.NotNil(t, f)
		assert.True(t, f.Equal(decimal.NewFromInt(int64(i))), "figure %d", i)
	}
	assert.Equal(t, "3", s.ClosingBalance.String())
}

func TestLedgerIncluded(t *testing.T) {
	l := Ledger{Transactions: []Transaction{
		{Description: "a", Amount: decimal.NewFromInt(10)},
		{Description: "b", Amount: decimal.NewFromInt(-5), Excluded: true},
		{Description: "c", Amount: decimal.NewFromInt(-2)},
	}}

	inc := l.Included()
	require.Len(t, inc, 2)
	assert.Equal(t, "a", inc[0].Description)
	assert.Equal(t, "c", inc[1].Description)
	assert.Equal(t, 1, l.ExcludedCount())
	assert.True(t, l.Transactions[0].IsCredit())
	assert.True(t, l.Transactions[2].IsDebit())
}
