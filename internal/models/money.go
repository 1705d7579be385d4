package models

import "github.com/shopspring/decimal"

// Currency is the only currency Pick & Go charges in.
const Currency = "MXN"

// MoneyPlaces is the number of decimal places kept on every published amount.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to centavos, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Cents converts an amount to integer centavos for payment providers.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents converts integer centavos back to a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -MoneyPlaces)
}

// Percent turns a percentage such as 16 into the ratio 0.16.
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(hundred)
}
