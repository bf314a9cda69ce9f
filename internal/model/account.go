package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAccountKind is returned for account kinds other than debit or credit.
var ErrUnknownAccountKind = errors.New("unknown account kind")

// AccountKind distinguishes debit (savings/checking) from credit-card statements.
type AccountKind string

const (
	AccountKindDebit  AccountKind = "debit"
	AccountKindCredit AccountKind = "credit"
)

// ParseAccountKind maps a user-supplied kind to an AccountKind.
// An empty string yields AccountKindDebit.
func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debit", "debito", "débito", "ahorros", "savings":
		return AccountKindDebit, nil
	case "credit", "credito", "crédito", "tarjeta":
		return AccountKindCredit, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownAccountKind, s)
	}
}

// Client is the account holder block of a statement.
type Client struct {
	Name    string
	Address string
	City    string
}

// IsEmpty reports whether no client field was captured.
func (c Client) IsEmpty() bool {
	return c.Name == "" && c.Address == "" && c.City == ""
}

// Account is the general-information block of a statement.
type Account struct {
	ValidFrom string
	ValidTo   string
	Kind      string // as printed by the institution, e.g. "AHORROS"
	Number    string
	Branch    string
}

// IsEmpty reports whether no account field was captured.
func (a Account) IsEmpty() bool {
	return a.ValidFrom == "" && a.ValidTo == "" && a.Kind == "" && a.Number == "" && a.Branch == ""
}
