package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabian-co/SelfEconomy/internal/config"
	"github.com/fabian-co/SelfEconomy/internal/importer"
	"github.com/fabian-co/SelfEconomy/internal/metrics"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/rules"
	"github.com/fabian-co/SelfEconomy/internal/template"
)

const extractoCSV = `Información Cliente:
Nombre,Dirección,Ciudad
Ana Pérez,Calle 1,Medellín
Movimientos:
Fecha,Descripción,Valor,Saldo
05/01,Pago a Proveedor,"-120.000,00","880.000,00"
06/01,Traslado entre cuentas,"-50.000,00","830.000,00"
`

const nuTXT = `NU FINANCIERA
Hola, Ana!
12 MAY Compra tienda $45.000,00
13 MAY Gracias por tu pago $10.000,00
`

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default("test")
	cfg.Defaults.YearHint = 2025
	require.NoError(t, config.Save(filepath.Join(root, config.FileName), cfg))

	w, err := Open(root)
	require.NoError(t, err)
	w.Metrics = metrics.New()
	w.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return w
}

func writeStatement(t *testing.T, w *Workspace, name, content string) string {
	t.Helper()
	path := filepath.Join(w.Root, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenWithoutConfig(t *testing.T) {
	root := t.TempDir()
	w, err := Open(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), w.Config.Workspace.Name)
	assert.Equal(t, []string{"bancolombia", "nu"}, w.Profiles.Formats())
}

func TestProcessDetectsProfile(t *testing.T) {
	w := newWorkspace(t)

	res, err := w.Process(Request{Path: writeStatement(t, w, "extracto.csv", extractoCSV)})
	require.NoError(t, err)
	assert.Equal(t, "bancolombia", res.Profile)
	assert.Equal(t, "Ana Pérez", res.Ledger.Meta.Client.Name)
	require.Len(t, res.Ledger.Transactions, 2)
	assert.Equal(t, "2025-01-001", res.Ledger.Transactions[0].ID)

	res, err = w.Process(Request{Path: writeStatement(t, w, "nu.txt", nuTXT)})
	require.NoError(t, err)
	assert.Equal(t, "nu", res.Profile)
	assert.Equal(t, model.AccountKindCredit, res.Ledger.Meta.AccountKind)

	assert.InDelta(t, 1, testutil.ToFloat64(w.Metrics.DocumentsProcessed.WithLabelValues("nu")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(w.Metrics.Transactions.WithLabelValues("bancolombia")), 0)
}

func TestProcessAppliesKeywordRules(t *testing.T) {
	w := newWorkspace(t)
	store := rules.NewStore(nil)
	store.Add(rules.Keyword{Kind: rules.KindIgnore, Pattern: "Traslado entre cuentas"})
	require.NoError(t, store.Save(w.Root))

	res, err := w.Process(Request{Path: writeStatement(t, w, "extracto.csv", extractoCSV)})
	require.NoError(t, err)
	assert.True(t, res.Ledger.Transactions[1].Excluded)
	assert.Equal(t, "120000", res.Ledger.Meta.Summary.TotalDebits.String())
}

func TestProcessRequestOverrides(t *testing.T) {
	w := newWorkspace(t)
	path := writeStatement(t, w, "extracto.csv", extractoCSV)

	res, err := w.Process(Request{Path: path, Profile: "BANCOLOMBIA", AccountKind: "credit", YearHint: 2024, Institution: "Mi Banco"})
	require.NoError(t, err)
	assert.Equal(t, model.AccountKindCredit, res.Ledger.Meta.AccountKind)
	assert.Equal(t, "Mi Banco", res.Ledger.Meta.Institution)
	assert.Equal(t, model.CanonicalDate("2024-01-05"), res.Ledger.Transactions[0].Date)
}

func TestProcessWithTemplate(t *testing.T) {
	w := newWorkspace(t)
	lib, err := w.Templates()
	require.NoError(t, err)
	tmpl, err := template.Parse([]byte(`{
		"entity": "Banco Demo",
		"signature_keywords": ["Banco Demo", "Extracto mensual"],
		"transaction_regex": "^(\\d{2}/\\d{2}) (.+?) (-?[\\d.]+,\\d{2})$",
		"group_mapping": {"date": 1, "description": 2, "value": 3}
	}`))
	require.NoError(t, err)
	name, err := lib.Save(tmpl, "txt")
	require.NoError(t, err)

	path := writeStatement(t, w, "demo.txt", "Banco Demo\nExtracto mensual\n05/01 Pago luz -80.000,00\n")

	res, err := w.Process(Request{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "template:"+name, res.Profile)
	require.Len(t, res.Ledger.Transactions, 1)

	res, err = w.Process(Request{Path: path, Template: name})
	require.NoError(t, err)
	assert.Equal(t, "Banco Demo", res.Ledger.Meta.Institution)

	descs, err := w.Analyze(Request{Path: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pago luz"}, descs)
}

func TestProcessErrors(t *testing.T) {
	w := newWorkspace(t)
	csv := writeStatement(t, w, "extracto.csv", extractoCSV)

	tests := []struct {
		name   string
		req    Request
		target error
		reason string
	}{
		{"unknown profile", Request{Path: csv, Profile: "citibank"}, ErrUnknownProfile, "configuration"},
		{"unknown template", Request{Path: csv, Template: "nope.json"}, ErrUnknownTemplate, "configuration"},
		{"bad account kind", Request{Path: csv, AccountKind: "loan"}, model.ErrUnknownAccountKind, "configuration"},
		{"unsupported", Request{Path: writeStatement(t, w, "x.ofx", "x")}, importer.ErrUnsupportedFormat, "configuration"},
		{"missing", Request{Path: filepath.Join(w.Root, "missing.csv")}, importer.ErrSourceUnavailable, "source_unavailable"},
		{"no encoding", Request{Path: writeStatement(t, w, "empty.csv", "")}, importer.ErrNoEncoding, "no_encoding"},
		{"undetected", Request{Path: writeStatement(t, w, "plain.txt", "hola")}, ErrNoProfile, "configuration"},
		{"wrong source kind", Request{Path: csv, Profile: "nu"}, importer.ErrUnsupportedFormat, "configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Process(tt.req)
			require.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.reason, FailureReason(err))
		})
	}
	assert.InDelta(t, 6, testutil.ToFloat64(w.Metrics.Failures.WithLabelValues("configuration")), 0)
}

func TestProcessInvalidKeywordRule(t *testing.T) {
	w := newWorkspace(t)
	store := rules.NewStore([]rules.Keyword{{Kind: rules.KindIgnore, Pattern: "x"}})
	require.NoError(t, store.Save(w.Root))
	// Keywords are quoted when merged, so a stored keyword can never break
	// compilation; a broken file is a read error instead.
	require.NoError(t, os.WriteFile(rules.KeywordsPath(w.Root), []byte("kind,pattern,note\nsometimes,x,\n"), 0o644))

	_, err := w.Process(Request{Path: writeStatement(t, w, "extracto.csv", extractoCSV)})
	require.Error(t, err)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "password_required", FailureReason(fmt.Errorf("a.pdf: %w", importer.ErrPasswordRequired)))
	assert.Equal(t, "configuration", FailureReason(template.ErrInvalidTemplate))
	assert.Equal(t, "configuration", FailureReason(rules.ErrInvalidPattern))
	assert.Equal(t, "internal", FailureReason(errors.New("boom")))
}
