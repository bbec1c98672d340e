package model

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places kept for every amount.
const AmountScale = 2

var (
	ErrInvalidAmount    = errors.New("amount is required and must be a number")
	ErrAmountOutOfRange = errors.New("amount is out of range")
)

// MaxAmount bounds every amount and balance in either direction. Two bounded
// values always add up to something that still fits in BIGINT minor units.
var MaxAmount = decimal.New(1, 13)

// Amount is a monetary value rounded to AmountScale places.
// It is persisted as an integer count of minor units so that
// in-place arithmetic in SQL stays exact on every driver.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(AmountScale)}
}

// AmountFromString parses a decimal and rejects values beyond MaxAmount.
func AmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	a := NewAmount(d)
	if !a.InRange() {
		return Amount{}, ErrAmountOutOfRange
	}
	return a, nil
}

func (a Amount) InRange() bool {
	return a.Abs().LessThanOrEqual(MaxAmount)
}

// MustAmount is for constants and tests.
func MustAmount(s string) Amount {
	a, err := AmountFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount {
	return NewAmount(a.Decimal.Add(b.Decimal))
}

func (a Amount) Sub(b Amount) Amount {
	return NewAmount(a.Decimal.Sub(b.Decimal))
}

func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func (a Amount) String() string {
	return a.StringFixed(AmountScale)
}

// Value stores the amount as minor units.
func (a Amount) Value() (driver.Value, error) {
	minor := a.Shift(AmountScale).Round(0)
	if !a.InRange() || !minor.BigInt().IsInt64() {
		return nil, ErrAmountOutOfRange
	}
	return minor.IntPart(), nil
}

func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	err := d.Scan(src)
	if err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	a.Decimal = d.Shift(-AmountScale)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(AmountScale)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return ErrInvalidAmount
	}
	data = bytes.Trim(data, `"`)

	parsed, err := AmountFromString(string(bytes.TrimSpace(data)))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
