// Package core holds the snapshot data model and the money/date primitives
// shared by every stage of the derivation pipeline.
//
// All monetary figures are minor units (cents) of a single settlement
// currency, held as int64. Derived daily figures are rounded half away from
// zero so every stage stays deterministic.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// CentsPerUnit is the number of minor units in one unit of the settlement
// currency.
const CentsPerUnit = 100

// MoneyFromFloat converts a major-unit value to Money with half-away-from-zero
// rounding on the cent.
func MoneyFromFloat(v float64) Money {
	return Money{Cents: int64(math.Round(v * 100))}
}

// Float returns the major-unit value for ratio arithmetic and display.
// Use cents for additive arithmetic to avoid drift.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }

// MulRate scales the amount by a factor, rounding half away from zero.
func (m Money) MulRate(r float64) Money {
	return Money{Cents: int64(math.Round(float64(m.Cents) * r))}
}

// Div splits the amount over a number of days; days below 1 are treated
// as 1 so a due date of today never divides by zero.
func (m Money) Div(days int) Money {
	if days < 1 {
		days = 1
	}
	return Money{Cents: int64(math.Round(float64(m.Cents) / float64(days)))}
}

// NonNegative clamps the amount at zero.
func (m Money) NonNegative() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

func MinMoney(a, b Money) Money {
	if a.Cents < b.Cents {
		return a
	}
	return b
}

func MaxMoney(a, b Money) Money {
	if a.Cents > b.Cents {
		return a
	}
	return b
}

// MarshalJSON encodes the amount as a major-unit decimal number, e.g. 1234
// cents as 12.34. All API payload amounts use this form.
func (m Money) MarshalJSON() ([]byte, error) {
	whole := m.Cents / 100
	frac := m.Cents % 100
	if frac < 0 {
		frac = -frac
	}
	sign := ""
	if m.Cents < 0 && whole == 0 {
		sign = "-"
	}
	return []byte(fmt.Sprintf("%s%d.%02d", sign, whole, frac)), nil
}

// UnmarshalJSON accepts a decimal number and rounds it to cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = MoneyFromFloat(v)
	return nil
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. A leading minus is honored (overlay deltas may be negative);
// a leading plus is not.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatAmount renders cents as a plain decimal string, e.g. "1234.50".
func FormatAmount(m Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}
