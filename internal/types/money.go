// README: Money value object in minor units (kobo for NGN).
package types

import (
	"fmt"
	"math"
)

const CurrencyNGN = "NGN"

type Money struct {
	Amount   int64
	Currency string
}

// NGN builds a naira amount from kobo.
func NGN(kobo int64) Money {
	return Money{Amount: kobo, Currency: CurrencyNGN}
}

// FromMajor converts a major-unit amount (e.g. 1500.50 naira) to Money, rounding to the nearest minor unit.
func FromMajor(v float64, currency string) Money {
	if currency == "" {
		currency = CurrencyNGN
	}
	return Money{Amount: int64(math.Round(v * 100)), Currency: currency}
}

func (m Money) Times(n int) Money {
	return Money{Amount: m.Amount * int64(n), Currency: m.Currency}
}

func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) IsPositive() bool {
	return m.Amount > 0
}

func (m Money) String() string {
	sign := ""
	a := m.Amount
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, a/100, a%100, m.Currency)
}
