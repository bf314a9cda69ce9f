package commands_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabian-co/SelfEconomy/internal/ledger"
)

const demoTemplate = `entity: Banco Demo
file_types: [txt]
signature_keywords: ["Banco Demo", "Extracto"]
transaction_regex: '^(\d{2}/\d{2}) (.+?) (-?[\d.]+,\d{2})$'
group_mapping:
  date: 1
  description: 2
  value: 3
year_hint: 2025
`

const demoStatement = `BANCO DEMO
Extracto mensual
03/02 Mercado -85.000,00
10/02 Transferencia recibida 200.000,00
`

func TestTemplate_AddListPreviewProcess(t *testing.T) {
	dir := initWorkspace(t)
	tmpl := writeFile(t, t.TempDir(), "demo.yaml", demoTemplate)
	src := writeFile(t, t.TempDir(), "febrero.txt", demoStatement)

	out, err := runSelfEconomy(t, "-w", dir, "template", "add", tmpl)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Saved template banco_demo_debit_txt.json")

	out, err = runSelfEconomy(t, "-w", dir, "template", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "banco_demo_debit_txt.json")
	assert.Contains(t, out, "Banco Demo")

	out, err = runSelfEconomy(t, "-w", dir, "template", "match", src)
	require.NoError(t, err, out)
	assert.Equal(t, "banco_demo_debit_txt.json\n", out)

	out, err = runSelfEconomy(t, "-w", dir, "template", "preview", "banco_demo_debit_txt.json", src, "-n", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Mercado")
	assert.NotContains(t, out, "Transferencia")
	assert.Contains(t, out, "1 matches")

	out, err = runSelfEconomy(t, "-w", dir, "process", src)
	require.NoError(t, err, out)
	assert.Contains(t, out, "with template:banco_demo_debit_txt.json: 2 transactions")

	l, err := ledger.ReadJSON(filepath.Join(dir, "processed", "banco_demo", "febrero.json"))
	require.NoError(t, err)
	require.Len(t, l.Transactions, 2)
	assert.Equal(t, "2025-02-001", l.Transactions[0].ID)
	assert.Equal(t, "-85000", l.Transactions[0].Amount.String())
}

func TestTemplate_AddRejectsInvalid(t *testing.T) {
	dir := initWorkspace(t)
	tmpl := writeFile(t, t.TempDir(), "roto.yaml", "entity: Roto\n")

	out, err := runSelfEconomy(t, "-w", dir, "template", "add", tmpl)
	require.Error(t, err)
	assert.Contains(t, out, "invalid template")
}

func TestTemplate_MatchNone(t *testing.T) {
	dir := initWorkspace(t)
	src := writeFile(t, t.TempDir(), "otro.txt", "nada que ver\n")

	out, err := runSelfEconomy(t, "-w", dir, "template", "match", src)
	require.Error(t, err)
	assert.Contains(t, out, "no profile recognizes the source")
}
