// Package core implements the financial computation engine: time-windowed
// aggregation, card due reconciliation, installment amortization and the
// spending-anomaly detector. Everything in this package is pure; "today" is
// always an argument and no function performs I/O or mutates its inputs.
//
// This file contains money parsing and fixed-point arithmetic helpers.
// Amounts are integer cents everywhere so aggregation boundaries stay exact
// and no float drift propagates across sums.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Only positive amounts are valid.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
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
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// ClampZero floors the amount at zero. Used wherever "outstanding" or
// "available for spending" semantics apply: an overpaid statement or a month
// in deficit reads as zero, not as a negative figure.
func (m Money) ClampZero() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

// Divide splits the amount into n equal parts, rounding half-up to the cent.
// The parts may not sum back to the original amount exactly; callers that
// amortize accept a few cents of tolerance rather than adjusting the last
// part. n must be positive and the amount non-negative.
func (m Money) Divide(n int) Money {
	if n <= 0 || m.Cents < 0 {
		return Money{}
	}
	d := int64(n)
	return Money{Cents: (2*m.Cents + d) / (2 * d)}
}

// Units returns the major-unit value as a float64 for display purposes only.
// Calculations stay in cents.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// roundPercent rounds a percentage to 2 fractional digits, the precision
// carried across every aggregation boundary.
func roundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}
