package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MoneyPlaces  int32 = 2
	WeightPlaces int32 = 3
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// GramsPerBaht is the Thai baht gold weight unit.
var GramsPerBaht = decimal.RequireFromString("15.244")

// Parse reads a decimal string and rejects values with more than places
// fractional digits.
func Parse(input string, places int32) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !HasPlaces(value, places) {
		return decimal.Zero, ErrTooManyDecimals
	}
	return value, nil
}

// HasPlaces reports whether value fits in places fractional digits.
func HasPlaces(value decimal.Decimal, places int32) bool {
	return value.Equal(value.Truncate(places))
}

func Money(value decimal.Decimal) decimal.Decimal {
	return value.Round(MoneyPlaces)
}

func Weight(value decimal.Decimal) decimal.Decimal {
	return value.Round(WeightPlaces)
}

func FormatMoney(value decimal.Decimal) string {
	return value.StringFixed(MoneyPlaces)
}

func FormatWeight(value decimal.Decimal) string {
	return value.StringFixed(WeightPlaces)
}

func PricePerBaht(pricePerGram decimal.Decimal) decimal.Decimal {
	return Money(pricePerGram.Mul(GramsPerBaht))
}
