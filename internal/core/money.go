// Package core provides money parsing and handling utilities.
//
// This file contains the exact decimal Money type used by every ledger
// computation and the parsers for user-entered amounts and quantities.
package core

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the only currency the ledger knows about.
const Currency = money.BRL

// Money is an exact decimal monetary value in reais.
type Money struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney builds a Money from a float literal. Intended for constants and
// tests; user input goes through ParseMoney.
func NewMoney(v float64) Money {
	return Money{value: decimal.NewFromFloat(v)}
}

// MoneyFromCents builds a Money from an integer amount of centavos.
func MoneyFromCents(cents int64) Money {
	return Money{value: decimal.New(cents, -2)}
}

// MustParseMoney is ParseMoney that panics on malformed input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + strconv.Quote(s))
	}
	return m
}

// ParseMoney converts a user-entered decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Unlike the ledger arithmetic, no rounding happens
// here: the value is kept as typed.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("12,34") -> 12.34, nil
//	ParseMoney("-85")   -> -85, nil
//	ParseMoney("abc")   -> 0, ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		if strings.HasPrefix(rest, "-") {
			return Zero, ErrInvalidAmount
		}
		s = rest
	}

	digits := strings.TrimPrefix(s, "-")
	parts := strings.Split(digits, ".")
	if len(parts) > 2 {
		return Zero, ErrInvalidAmount
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return Zero, ErrInvalidAmount
			}
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return Money{value: d}, nil
}

// ParseQuantity parses a strictly positive integer quantity.
func ParseQuantity(s string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || q <= 0 {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

func (m Money) Add(n Money) Money        { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money        { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money               { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money               { return Money{value: m.value.Abs()} }
func (m Money) Mul(qty int) Money        { return Money{value: m.value.Mul(decimal.NewFromInt(int64(qty)))} }
func (m Money) Sign() int                { return m.value.Sign() }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int          { return m.value.Cmp(n.value) }
func (m Money) GreaterThan(n Money) bool { return m.value.GreaterThan(n.value) }

// Cents returns the value rounded half-up to centavos.
func (m Money) Cents() int64 {
	return m.value.Shift(2).Round(0).IntPart()
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// String returns the value with two decimal places, e.g. "-300.00".
func (m Money) String() string {
	return m.value.StringFixed(2)
}

// Display formats the value as Brazilian currency, e.g. "R$1.234,56".
// Note: display only, never parse it back.
func (m Money) Display() string {
	return money.New(m.Cents(), Currency).Display()
}

// MarshalJSON encodes the amount as a bare JSON number so stored slots stay
// readable by clients that expect numbers.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.value = d
	return nil
}
