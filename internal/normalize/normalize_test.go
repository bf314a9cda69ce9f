package normalize

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/rules"
	"github.com/fabian-co/SelfEconomy/internal/section"
	"github.com/fabian-co/SelfEconomy/internal/section/mocks"
	"github.com/fabian-co/SelfEconomy/internal/template"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
}

type countingObserver map[string]int

func (c countingObserver) Skipped(stage string, n int) { c[stage] += n }

var statementRows = [][]string{
	{"Información Cliente:"},
	{"Nombre", "Dirección", "Ciudad"},
	{"Ana Pérez", "Calle 1 # 2-3", "Medellín"},
	{""},
	{"Resumen:"},
	{"Saldo anterior", "Total abonos", "Total cargos", "Saldo actual"},
	{"$ 1.000.000,00", "$ 50.000,00", "$ 320.000,00", "$ 730.000,00"},
	{"Movimientos:"},
	{"Fecha", "Descripción", "Valor", "Saldo"},
	{"05/01", "Pago", "a", "Proveedor,", "S.A.", "-120.000,00", "880.000,00"},
	{"06/01", "Abono", "nomina", "50.000,00", "930.000,00"},
	{"07/01", "Traslado", "entre", "cuentas", "propias", "-200.000,00", "730.000,00"},
}

func TestRowsEndToEnd(t *testing.T) {
	obs := countingObserver{}
	n := New(Options{
		Institution: "Bancolombia",
		YearHint:    2025,
		Rules:       rules.Spec{IgnorePatterns: []string{"traslado entre cuentas"}},
		Now:         fixedNow,
		Logger:      zerolog.Nop(),
		Observer:    obs,
	})

	l, err := n.Rows(statementRows)
	require.NoError(t, err)

	assert.Equal(t, "Bancolombia", l.Meta.Institution)
	assert.Equal(t, model.AccountKindDebit, l.Meta.AccountKind)
	assert.Equal(t, "Ana Pérez", l.Meta.Client.Name)

	require.Len(t, l.Transactions, 3)
	first := l.Transactions[0]
	assert.Equal(t, "2025-01-001", first.ID)
	assert.Equal(t, model.CanonicalDate("2025-01-05"), first.Date)
	assert.Equal(t, "Pago a Proveedor, S.A.", first.Description)
	assert.True(t, dec("-120000").Equal(first.Amount))
	assert.Equal(t, "2025-01-003", l.Transactions[2].ID)
	assert.True(t, l.Transactions[2].Excluded)
	assert.Equal(t, 1, l.ExcludedCount())

	s := l.Meta.Summary
	require.NotNil(t, s.OpeningBalance)
	assert.True(t, dec("1000000").Equal(*s.OpeningBalance))
	assert.True(t, dec("50000").Equal(*s.TotalCredits))
	assert.True(t, dec("120000").Equal(*s.TotalDebits), "excluded transfer is left out of debits")
	assert.True(t, dec("930000").Equal(*s.ClosingBalance))
	assert.Empty(t, obs)
}

func TestRowsWithClassifierMock(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mocks.NewMockClassifier(ctrl)
	c.EXPECT().Classify(gomock.Any()).DoAndReturn(func(row []string) (section.Key, bool) {
		if row[0] == "MOVS" {
			return section.Movements, true
		}
		return section.None, false
	}).Times(3)

	obs := countingObserver{}
	n := New(Options{YearHint: 2025, Classifier: c, Now: fixedNow, Observer: obs})
	l, err := n.Rows([][]string{
		{"MOVS"},
		{"Fecha", "Detalle", "Valor", "Saldo"},
		{"10/02", "Compra", "-5.000,00", "95.000,00"},
		{"11/02", "Compra", "sin valor", "x"},
	})
	require.NoError(t, err)
	require.Len(t, l.Transactions, 1)
	assert.Equal(t, "2025-02-001", l.Transactions[0].ID)
	assert.Equal(t, 1, obs["rows"])
}

func TestRowsRejectsBadRules(t *testing.T) {
	n := New(Options{Rules: rules.Spec{IgnorePatterns: []string{"("}}})
	_, err := n.Rows(statementRows)
	assert.Error(t, err)
	_, err = n.Text([]string{"x"})
	assert.Error(t, err)
}

func TestTextAcrossPages(t *testing.T) {
	n := New(Options{
		Institution: "Nu",
		AccountKind: model.AccountKindCredit,
		YearHint:    2025,
		Rules: rules.Spec{
			DefaultNegative:  true,
			PositivePatterns: []string{"gracias por tu"},
		},
		Now: fixedNow,
	})

	l, err := n.Text([]string{
		"Hola, Ana!\n12 MAY Compra tienda $45.000,00\nSupermercado XYZ",
		"Bogota\n13 MAY Gracias por tu pago $10.000,00",
	})
	require.NoError(t, err)
	require.Len(t, l.Transactions, 2)
	assert.Equal(t, "Compra tienda Supermercado XYZ", l.Transactions[0].Description, "no continuation across pages")
	assert.True(t, dec("-45000").Equal(l.Transactions[0].Amount))
	assert.True(t, dec("10000").Equal(l.Transactions[1].Amount))
	assert.Equal(t, "2025-05-002", l.Transactions[1].ID)

	s := l.Meta.Summary
	assert.True(t, dec("-45000").Equal(*s.ClosingBalance))
	assert.Nil(t, s.OpeningBalance)
}

func TestTemplate(t *testing.T) {
	tmpl, err := template.Parse([]byte(`{
		"entity": "Nu Colombia",
		"account_type": "credit",
		"transaction_regex": "^(\\d{1,2} [A-Z]{3})\\s+(.+?)\\s+(\\S+)$",
		"group_mapping": {"date": 1, "description": 2, "value": 3},
		"year_hint": 2025,
		"rules": {"default_negative": true}
	}`))
	require.NoError(t, err)

	obs := countingObserver{}
	n := New(Options{
		Rules:    rules.Spec{IgnorePatterns: []string{"cuota de manejo"}},
		Now:      fixedNow,
		Observer: obs,
	})
	l, err := n.Template([]string{
		"03 SEP Compra Amazon $50.000,00",
		"05 SEP Cuota de manejo $15.000,00\n06 SEP Pendiente n/a",
	}, tmpl)
	require.NoError(t, err)

	assert.Equal(t, "Nu Colombia", l.Meta.Institution)
	assert.Equal(t, model.AccountKindCredit, l.Meta.AccountKind)
	require.Len(t, l.Transactions, 2)
	assert.True(t, l.Transactions[1].Excluded)
	assert.True(t, dec("50000").Equal(*l.Meta.Summary.TotalDebits))
	assert.Equal(t, 1, obs["template"])
	assert.Empty(t, tmpl.Rules.IgnorePatterns, "template is not modified")
}

func TestTemplateInvalid(t *testing.T) {
	n := New(Options{})
	_, err := n.Template([]string{"x"}, &template.Template{Entity: "x"})
	assert.ErrorIs(t, err, template.ErrInvalidTemplate)
}

func TestAnalyze(t *testing.T) {
	l := &model.Ledger{Transactions: []model.Transaction{
		{Description: "Uber  trip"},
		{Description: "Amazon"},
		{Description: "Uber trip"},
		{Description: " "},
	}}
	assert.Equal(t, []string{"Amazon", "Uber trip"}, Analyze(l))

	n := New(Options{YearHint: 2025, Now: fixedNow})
	got, err := n.AnalyzeRows(statementRows)
	require.NoError(t, err)
	assert.Equal(t, []string{"Abono nomina", "Pago a Proveedor, S.A.", "Traslado entre cuentas propias"}, got)

	got, err = n.AnalyzeText([]string{"nothing here"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLinesAndMarkers(t *testing.T) {
	lines := Lines([]string{"a\r\nb ", "c"})
	assert.Equal(t, []string{"a", "b", "--- PAGE BREAK ---", "c"}, lines)

	assert.True(t, IsPageMarker("--- PÁGINA 2 ---"))
	assert.True(t, IsPageMarker("---pagina 10---"))
	assert.True(t, IsPageMarker(" --- PAGE BREAK --- "))
	assert.False(t, IsPageMarker("--- resumen ---"))
}

func TestDefaultsUseLocaleClock(t *testing.T) {
	n := New(Options{})
	assert.NotNil(t, n.dates.Now)
	assert.Equal(t, model.AccountKindDebit, n.opts.AccountKind)
	_, ok := n.opts.Classifier.(*section.MarkerClassifier)
	assert.True(t, ok)
	assert.Equal(t, locale.Auto, n.opts.Separators)
}
