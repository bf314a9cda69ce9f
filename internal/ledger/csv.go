package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

// Header is the CSV header of a ledger export.
const Header = "id,fecha,descripcion,valor,saldo,ignored"

const (
	numFields  = 6
	colID      = 0
	colDate    = 1
	colDesc    = 2
	colAmount  = 3
	colBalance = 4
	colIgnored = 5
)

// ReadCSV reads all transactions from a ledger CSV reader.
func ReadCSV(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txns []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// WriteCSV writes transactions to a ledger CSV writer (including header).
func WriteCSV(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = t.ID
	row[colDate] = t.Date.String()
	row[colDesc] = t.Description
	row[colAmount] = t.Amount.StringFixed(2)
	if t.Balance != nil {
		row[colBalance] = t.Balance.StringFixed(2)
	}
	row[colIgnored] = strconv.FormatBool(t.Excluded)
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing valor %q: %w", record[colAmount], err)
	}

	var balance *decimal.Decimal
	if record[colBalance] != "" {
		b, err := decimal.NewFromString(record[colBalance])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing saldo %q: %w", record[colBalance], err)
		}
		balance = &b
	}

	ignored, err := strconv.ParseBool(record[colIgnored])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing ignored %q: %w", record[colIgnored], err)
	}

	return model.Transaction{
		ID:          record[colID],
		Date:        model.CanonicalDate(record[colDate]),
		Description: record[colDesc],
		Amount:      amount,
		Balance:     balance,
		Excluded:    ignored,
	}, nil
}
