// Package rowsplit turns classified statement rows into metadata and
// transactions. Movement rows are read from the right: the last cell is the
// running balance, the one before it the amount, and everything between the
// date and the amount is description.
package rowsplit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/section"
)

// minMovementCells is date + amount + balance.
const minMovementCells = 3

// Skip records a row that produced no output.
type Skip struct {
	Index  int
	Reason string
}

// Result is what Apply extracted.
type Result struct {
	Meta         model.MetaInfo
	Transactions []model.Transaction
	Skipped      []Skip
}

// Splitter converts section rows. The zero value detects separators per value
// and falls back to the current year for dates without one.
type Splitter struct {
	Seps       locale.Separators
	YearHint   int
	DateFormat string
	Dates      *locale.DateNormalizer
}

// Apply processes rows in order. Only the first populated row of each info
// section is used.
func (s *Splitter) Apply(rows []section.Row) Result {
	var (
		res  Result
		seen = map[section.Key]bool{}
	)
	for _, row := range rows {
		switch row.Section {
		case section.Client, section.Account, section.Summary:
			if seen[row.Section] {
				res.Skipped = append(res.Skipped, Skip{row.Index, fmt.Sprintf("additional %s row", row.Section)})
				continue
			}
			seen[row.Section] = true
			s.applyInfo(&res.Meta, row)
		case section.Movements:
			txn, err := s.movement(row.Cells)
			if err != nil {
				res.Skipped = append(res.Skipped, Skip{row.Index, err.Error()})
				continue
			}
			res.Transactions = append(res.Transactions, txn)
		default:
			res.Skipped = append(res.Skipped, Skip{row.Index, "row outside any section"})
		}
	}
	return res
}

func (s *Splitter) applyInfo(meta *model.MetaInfo, row section.Row) {
	cells := row.Cells
	switch row.Section {
	case section.Client:
		assign(cells, &meta.Client.Name, &meta.Client.Address, &meta.Client.City)
	case section.Account:
		a := &meta.Account
		assign(cells, &a.ValidFrom, &a.ValidTo, &a.Kind, &a.Number, &a.Branch)
	case section.Summary:
		for i, slot := range meta.Summary.Slots() {
			if i >= len(cells) {
				break
			}
			if d, err := locale.ParseAmount(cells[i], s.Seps); err == nil {
				*slot = model.DecimalPtr(d)
			}
		}
	}
}

func assign(cells []string, fields ...*string) {
	for i, f := range fields {
		if i < len(cells) {
			*f = cells[i]
		}
	}
}

func (s *Splitter) movement(cells []string) (model.Transaction, error) {
	if len(cells) < minMovementCells {
		return model.Transaction{}, fmt.Errorf("movement row has %d cells, need %d", len(cells), minMovementCells)
	}
	n := len(cells)
	amount, err := locale.ParseAmount(cells[n-2], s.Seps)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount: %w", err)
	}

	var balance *decimal.Decimal
	if b, err := locale.ParseAmount(cells[n-1], s.Seps); err == nil {
		balance = model.DecimalPtr(b)
	}

	return model.Transaction{
		Date:        s.dates().Normalize(cells[0], s.DateFormat, s.YearHint),
		Description: locale.CollapseSpaces(strings.Join(cells[1:n-2], " ")),
		Amount:      amount,
		Balance:     balance,
	}, nil
}

func (s *Splitter) dates() *locale.DateNormalizer {
	if s.Dates != nil {
		return s.Dates
	}
	return locale.NewDateNormalizer()
}
