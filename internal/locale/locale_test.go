package locale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"50,5", "50.5"},
		{"$ 45.000,00", "45000"},
		{"-120.000,00", "-120000"},
		{"980.000,00", "980000"},
		{"1,234", "1234"},
		{"1.234", "1234"},
		{"1.234.567", "1234567"},
		{"12.5", "12.5"},
		{"0.99", "0.99"},
		{"1.234,56-", "-1234.56"},
		{"+ $ 300,00", "300"},
		{"$-45.000", "-45000"},
		{"  7 ", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw, Auto)
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmountSeparatorConventionsAgree(t *testing.T) {
	a, err := ParseAmount("1.234,56", Auto)
	require.NoError(t, err)
	b, err := ParseAmount("1,234.56", Auto)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.True(t, dec("1234.56").Equal(a))
}

func TestParseAmountExplicitSeparators(t *testing.T) {
	latam := Separators{Decimal: ",", Thousand: "."}
	got, err := ParseAmount("1.234", latam)
	require.NoError(t, err)
	assert.True(t, dec("1234").Equal(got))

	got, err = ParseAmount("12,5", latam)
	require.NoError(t, err)
	assert.True(t, dec("12.5").Equal(got))

	us := Separators{Decimal: ".", Thousand: ","}
	got, err = ParseAmount("1,234.5", us)
	require.NoError(t, err)
	assert.True(t, dec("1234.5").Equal(got))

	assert.False(t, Separators{Decimal: ",", Thousand: ","}.Explicit())
	assert.False(t, Separators{Decimal: ","}.Explicit())
}

func TestParseAmountErrors(t *testing.T) {
	for _, raw := range []string{"", "abc", "$", "--", "1-2-3"} {
		_, err := ParseAmount(raw, Auto)
		assert.ErrorIs(t, err, ErrUnparseableAmount, "raw %q", raw)
	}
}

func TestMustParseAmountPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseAmount("n/a") })
	assert.True(t, dec("10").Equal(MustParseAmount("10,00")))
}

func fixedClock() *DateNormalizer {
	return &DateNormalizer{Now: func() time.Time {
		return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	}}
}

func TestNormalizeDate(t *testing.T) {
	n := fixedClock()
	tests := []struct {
		name     string
		raw      string
		hint     string
		yearHint int
		want     model.CanonicalDate
	}{
		{"named month with hint", "18 AGO", "", 2025, "2025-08-18"},
		{"numeric full", "18/08/2025", "", 0, "2025-08-18"},
		{"named month english", "5 Dec 2023", "", 0, "2023-12-05"},
		{"named month lower", "02-ene-24", "", 0, "2024-01-02"},
		{"spanish long form", "18 de agosto de 2025", "", 0, "2025-08-18"},
		{"numeric no year uses hint", "05/01", "", 2025, "2025-01-05"},
		{"numeric no year uses clock", "05/01", "", 0, "2024-01-05"},
		{"dash numeric", "05-01-2025", "", 0, "2025-01-05"},
		{"two digit year", "05/01/25", "", 0, "2025-01-05"},
		{"month first hint", "01/05/2025", "MM/DD/YYYY", 0, "2025-01-05"},
		{"iso passthrough", "2025-08-18", "", 0, "2025-08-18"},
		{"iso unpadded", "2025-8-1", "", 0, "2025-08-01"},
		{"impossible day", "31/02/2025", "", 0, "31/02/2025"},
		{"unknown month", "18 XYZ", "", 2025, "18 XYZ"},
		{"garbage", "fecha", "", 0, "fecha"},
		{"empty", "  ", "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw, tt.hint, tt.yearHint))
		})
	}
}

func TestNormalizeDateShapesAgree(t *testing.T) {
	n := fixedClock()
	assert.Equal(t, n.Normalize("18 AGO", "", 2025), n.Normalize("18/08/2025", "", 0))
	assert.True(t, NormalizeDate("18/08/2025", "", 0).IsISO())
}

func TestMonthNumber(t *testing.T) {
	m, ok := MonthNumber("Agosto")
	require.True(t, ok)
	assert.Equal(t, time.August, m)

	m, ok = MonthNumber("DIC.")
	require.True(t, ok)
	assert.Equal(t, time.December, m)

	_, ok = MonthNumber("xx")
	assert.False(t, ok)

	abbr := MonthAbbreviations()
	assert.Contains(t, abbr, "ENE")
	assert.Contains(t, abbr, "AUG")
	assert.IsIncreasing(t, abbr)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "informacion cliente:", Fold("  Información   CLIENTE: "))
	assert.Equal(t, "pagina 2", Fold("PÁGINA 2"))
	assert.True(t, ContainsFold("ABONO INTERÉS AHORROS", "interes"))
	assert.False(t, ContainsFold("Compra", "abono"))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Pago a Proveedor", CollapseSpaces("  Pago \t a\n Proveedor "))
	assert.Equal(t, "", CollapseSpaces("   "))
}

func TestHasCurrencyToken(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"$45.000,00", true},
		{"Compra 1.234,56", true},
		{"$ 12", true},
		{"Cuota manejo 12000,00", true},
		{"Abono 45000.00", true},
		{"Supermercado XYZ", false},
		{"Uber 360", false},
		{"Cuota 1 de 12", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasCurrencyToken(tt.line), tt.line)
	}
}
