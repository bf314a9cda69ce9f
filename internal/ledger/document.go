// Package ledger reads and writes normalized ledgers: the JSON document
// consumed by downstream tools, a flat CSV export and the processed-ledger
// store of a workspace.
package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

// Document is the serialized form of a model.Ledger.
type Document struct {
	Meta         MetaDoc          `json:"meta_info"`
	Transactions []TransactionDoc `json:"transacciones"`
}

// MetaDoc is the meta_info object.
type MetaDoc struct {
	Institution    string     `json:"banco"`
	AccountKind    string     `json:"tipo_cuenta"`
	Client         ClientDoc  `json:"cliente"`
	Account        AccountDoc `json:"cuenta"`
	Summary        SummaryDoc `json:"resumen"`
	IgnoreKeywords []string   `json:"ignore_keywords,omitempty"`
}

// ClientDoc is the cliente object.
type ClientDoc struct {
	Name    string `json:"nombre,omitempty"`
	Address string `json:"direccion,omitempty"`
	City    string `json:"ciudad,omitempty"`
}

// AccountDoc is the cuenta object.
type AccountDoc struct {
	ValidFrom string `json:"desde,omitempty"`
	ValidTo   string `json:"hasta,omitempty"`
	Kind      string `json:"tipo_cuenta,omitempty"`
	Number    string `json:"numero_cuenta,omitempty"`
	Branch    string `json:"sucursal,omitempty"`
}

// SummaryDoc is the resumen object. Absent figures are omitted.
type SummaryDoc struct {
	OpeningBalance *json.Number `json:"saldo_anterior,omitempty"`
	TotalCredits   *json.Number `json:"total_abonos,omitempty"`
	TotalDebits    *json.Number `json:"total_cargos,omitempty"`
	ClosingBalance *json.Number `json:"saldo_actual,omitempty"`
	AverageBalance *json.Number `json:"saldo_promedio,omitempty"`
	SuggestedLimit *json.Number `json:"cupo_sugerido,omitempty"`
	Interest       *json.Number `json:"intereses,omitempty"`
	Withholding    *json.Number `json:"retefuente,omitempty"`
}

func (s *SummaryDoc) slots() []**json.Number {
	return []**json.Number{
		&s.OpeningBalance, &s.TotalCredits, &s.TotalDebits, &s.ClosingBalance,
		&s.AverageBalance, &s.SuggestedLimit, &s.Interest, &s.Withholding,
	}
}

// TransactionDoc is one element of transacciones.
type TransactionDoc struct {
	ID          string       `json:"id,omitempty"`
	Date        string       `json:"fecha"`
	Description string       `json:"descripcion"`
	Amount      json.Number  `json:"valor"`
	Balance     *json.Number `json:"saldo"`
	Ignored     bool         `json:"ignored"`
}

// FromLedger converts a ledger to its document form.
func FromLedger(l *model.Ledger) Document {
	m := l.Meta
	doc := Document{
		Meta: MetaDoc{
			Institution:    m.Institution,
			AccountKind:    string(m.AccountKind),
			Client:         ClientDoc{Name: m.Client.Name, Address: m.Client.Address, City: m.Client.City},
			Account:        AccountDoc{ValidFrom: m.Account.ValidFrom, ValidTo: m.Account.ValidTo, Kind: m.Account.Kind, Number: m.Account.Number, Branch: m.Account.Branch},
			IgnoreKeywords: m.ExclusionKeywords,
		},
		Transactions: make([]TransactionDoc, 0, len(l.Transactions)),
	}

	figures := m.Summary.Figures()
	for i, slot := range doc.Meta.Summary.slots() {
		*slot = number(figures[i])
	}

	for _, t := range l.Transactions {
		doc.Transactions = append(doc.Transactions, TransactionDoc{
			ID:          t.ID,
			Date:        t.Date.String(),
			Description: t.Description,
			Amount:      json.Number(t.Amount.String()),
			Balance:     number(t.Balance),
			Ignored:     t.Excluded,
		})
	}
	return doc
}

// ToLedger converts a document back to a ledger.
func (d Document) ToLedger() (*model.Ledger, error) {
	kind, err := model.ParseAccountKind(d.Meta.AccountKind)
	if err != nil {
		return nil, fmt.Errorf("meta_info.tipo_cuenta: %w", err)
	}
	m := d.Meta
	l := &model.Ledger{
		Meta: model.MetaInfo{
			Institution:       m.Institution,
			AccountKind:       kind,
			Client:            model.Client{Name: m.Client.Name, Address: m.Client.Address, City: m.Client.City},
			Account:           model.Account{ValidFrom: m.Account.ValidFrom, ValidTo: m.Account.ValidTo, Kind: m.Account.Kind, Number: m.Account.Number, Branch: m.Account.Branch},
			ExclusionKeywords: m.IgnoreKeywords,
		},
	}

	summary := d.Meta.Summary
	docSlots := summary.slots()
	for i, slot := range l.Meta.Summary.Slots() {
		v, err := fromNumber(*docSlots[i])
		if err != nil {
			return nil, fmt.Errorf("meta_info.resumen: %w", err)
		}
		*slot = v
	}

	for i, t := range d.Transactions {
		amount, err := decimal.NewFromString(t.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("transacciones[%d].valor: %w", i, err)
		}
		balance, err := fromNumber(t.Balance)
		if err != nil {
			return nil, fmt.Errorf("transacciones[%d].saldo: %w", i, err)
		}
		l.Transactions = append(l.Transactions, model.Transaction{
			ID:          t.ID,
			Date:        model.CanonicalDate(t.Date),
			Description: t.Description,
			Amount:      amount,
			Balance:     balance,
			Excluded:    t.Ignored,
		})
	}
	return l, nil
}

func number(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

func fromNumber(n *json.Number) (*decimal.Decimal, error) {
	if n == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Encode writes l as indented JSON.
func Encode(w io.Writer, l *model.Ledger) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(FromLedger(l)); err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	return nil
}

// Decode reads a ledger document.
func Decode(r io.Reader) (*model.Ledger, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding ledger: %w", err)
	}
	return doc.ToLedger()
}

// WriteJSON writes l to path, creating parent directories.
func WriteJSON(path string, l *model.Ledger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ledger file: %w", err)
	}
	if err := Encode(f, l); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing ledger file: %w", err)
	}
	return nil
}

// ReadJSON reads a ledger document from path.
func ReadJSON(path string) (*model.Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// AnalyzeDocument is the output of analyze mode.
type AnalyzeDocument struct {
	Descriptions []string `json:"descripciones"`
}

// EncodeAnalysis writes the sorted unique descriptions as JSON.
func EncodeAnalysis(w io.Writer, descriptions []string) error {
	if descriptions == nil {
		descriptions = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(AnalyzeDocument{Descriptions: descriptions}); err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	return nil
}
