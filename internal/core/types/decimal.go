// Package types provides common monetary and quantity types.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
// All persisted monetary results carry exactly 2 decimal places.
type Money = decimal.Decimal

// MoneyScale is the number of decimal places for persisted monetary values.
const MoneyScale int32 = 2

// NewMoneyFromFloat creates a Money value from a float.
// Prefer NewMoneyFromString for exact values; floats are for test data and
// policy evaluation only.
func NewMoneyFromFloat(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns the zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// RoundMoney rounds to 2 decimal places, half-up.
// This is the single rounding policy for the pricing engine; every derived
// monetary figure (discount amount, tax amount) passes through it exactly once.
func RoundMoney(v Money) Money {
	return v.Round(MoneyScale)
}

// ApplyPercent returns round(v * pct / 100, 2).
func ApplyPercent(v Money, pct Money) Money {
	return RoundMoney(v.Mul(pct).Div(decimal.NewFromInt(100)))
}

// Quantity is a fixed-point quantity with 3 decimal places (scale = 1e3).
//
// Rationale:
// - Matches Postgres NUMERIC(12,3) semantics without floating point errors
// - Stores as a scaled BIGINT
// - Supports fractional units (partial rolls, weight in kg)
type Quantity int64

// QuantityScale is the fixed-point scale factor.
const QuantityScale int64 = 1_000

// NewQuantityFromFloat64 converts a float to fixed-point, rounding half-up.
func NewQuantityFromFloat64(v float64) Quantity {
	return Quantity(math.Round(v * float64(QuantityScale)))
}

// NewQuantityFromInt creates a whole-unit quantity.
func NewQuantityFromInt(v int64) Quantity {
	return Quantity(v * QuantityScale)
}

// NewQuantityFromInt64Scaled wraps an already-scaled value.
func NewQuantityFromInt64Scaled(v int64) Quantity { return Quantity(v) }

func (q Quantity) Int64Scaled() int64 { return int64(q) }

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

// Decimal converts the quantity to a decimal for pricing arithmetic.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -3)
}

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Add(other Quantity) Quantity { return q + other }

func (q Quantity) Sub(other Quantity) Quantity { return q - other }

// String returns a decimal string with 3 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%03d", intPart, frac)
	}
	return fmt.Sprintf("%d.%03d", intPart, frac)
}

// MarshalJSON encodes Quantity as a JSON number, preserving 3 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string and parses to
// fixed-point (3 digits).
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	// If string, unquote first.
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parseQuantityString(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}

	parsed, err := parseQuantityString(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func parseQuantityString(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}

	// Exponent form is parsed via float; plain decimal strings stay exact.
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse quantity: %w", err)
		}
		return NewQuantityFromFloat64(f), nil
	}

	sign := int64(1)
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = strings.TrimPrefix(s, "-")
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimPrefix(s, "+")
	}

	parts := strings.SplitN(s, ".", 2)
	intPartStr := parts[0]
	fracStr := ""
	if len(parts) == 2 {
		fracStr = parts[1]
	}

	if intPartStr == "" {
		intPartStr = "0"
	}
	intPart, err := strconv.ParseInt(intPartStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quantity integer part: %w", err)
	}

	// Normalize fractional part to 3 digits (pad right, truncate extra digits).
	if len(fracStr) > 3 {
		fracStr = fracStr[:3]
	}
	for len(fracStr) < 3 {
		fracStr += "0"
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quantity fractional part: %w", err)
	}

	return Quantity(sign * (intPart*QuantityScale + frac)), nil
}
