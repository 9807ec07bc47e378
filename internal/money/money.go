package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// Places is the fixed-point precision for every balance column.
const Places = 4

func Parse(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.Exponent() < -Places {
		return decimal.Zero, ErrTooManyDecimals
	}
	return value, nil
}

func Format(value decimal.Decimal) string {
	return value.StringFixed(Places)
}

// Fee applies a rate to an amount and quantizes to ledger precision.
func Fee(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).RoundBank(Places)
}

func Equal(a, b decimal.Decimal) bool {
	return a.Equal(b)
}
