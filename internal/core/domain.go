package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Entrada TransactionType = "ENTRADA"
	Saida   TransactionType = "SAIDA"
)

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

type (
	// TransactionType is the direction of a cash movement.
	TransactionType string

	// Date is a calendar date without time of day.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
	}

	// TransactionInput is a transaction that has not been assigned an id yet.
	TransactionInput struct {
		Date        Date
		Type        TransactionType
		Category    string
		Description string
		Amount      Money
	}

	// Debtor is a customer owing money to the business (a "fiado").
	Debtor struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
	}

	Product struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		SellingPrice  Money  `json:"sellingPrice"`
		ProfitPerUnit Money  `json:"profitPerUnit"`
	}

	// SaleRecord logs a quantity of a catalog product sold. It feeds profit
	// reporting only and never touches the cash balance.
	SaleRecord struct {
		ProductID string    `json:"productId"`
		Quantity  int       `json:"quantity"`
		Date      time.Time `json:"date"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrUnknownCategory = errors.New("unknown category for transaction type")
	ErrInvalidDate     = errors.New("invalid date")
)

// Valid reports whether t is ENTRADA or SAIDA.
func (t TransactionType) Valid() bool {
	return t == Entrada || t == Saida
}

// ParseTransactionType accepts the type name in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Tolerate full timestamps written by older clients.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks a transaction entered by a user against the catalog.
// The ledger engine itself never validates: categories are advisory labels.
func (in TransactionInput) Validate(c Catalog) error {
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if !c.HasCategory(in.Type, in.Category) {
		return fmt.Errorf("%w: %q (%s)", ErrUnknownCategory, in.Category, in.Type)
	}
	return nil
}

// SignedAmount applies the entry form's sign policy: outflows are always
// negative and inflows always positive, whatever sign the user typed.
func SignedAmount(t TransactionType, amount Money) Money {
	if t == Saida {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// Settled reports whether the debtor owes nothing.
func (d Debtor) Settled() bool {
	return !d.Amount.IsPositive()
}
