package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		year, month, seq int
		want             string
	}{
		{2025, 1, 1, "2025-01-001"},
		{2025, 12, 99, "2025-12-099"},
		{2025, 1, 123, "2025-01-123"},
		{0, 0, 7, "0000-00-007"},
	}
	for _, tt := range tests {
		got := Format(tt.year, tt.month, tt.seq)
		assert.Equal(t, tt.want, got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input               string
		wantYear, wantMonth int
		wantSeq             int
	}{
		{"2025-01-001", 2025, 1, 1},
		{"2025-12-099", 2025, 12, 99},
		{"0000-00-004", 0, 0, 4},
	}
	for _, tt := range tests {
		year, month, seq, err := Parse(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantYear, year)
		assert.Equal(t, tt.wantMonth, month)
		assert.Equal(t, tt.wantSeq, seq)
	}
}

func TestParse_Invalid(t *testing.T) {
	invalids := []string{"", "2025", "2025-01", "abcd-01-001", "2025-ab-001", "2025-01-abc"}
	for _, s := range invalids {
		_, _, _, err := Parse(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}

func TestRoundTrip(t *testing.T) {
	id := Format(2025, 3, 42)
	year, month, seq, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 3, month)
	assert.Equal(t, 42, seq)
}

func TestAssign(t *testing.T) {
	txns := []model.Transaction{
		{Date: "2025-01-05"},
		{Date: "2025-02-01"},
		{Date: "2025-01-31"},
		{Date: "31/02/2025"},
		{Date: "2025-01-31"},
		{Date: "fecha"},
	}
	Assign(txns)

	var got []string
	for _, txn := range txns {
		got = append(got, txn.ID)
	}
	assert.Equal(t, []string{
		"2025-01-001", "2025-02-001", "2025-01-002", "0000-00-001", "2025-01-003", "0000-00-002",
	}, got)
}
