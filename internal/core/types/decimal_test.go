package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundMoney_HalfUp(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1.00",
		"162":    "162.00",
		"106.20": "106.20",
		"0.125":  "0.13",
	}
	for in, want := range cases {
		got := RoundMoney(MustMoney(in))
		assert.Equal(t, want, got.StringFixed(2), "RoundMoney(%s)", in)
	}
}

func TestApplyPercent(t *testing.T) {
	// 900.00 * 18% = 162.00
	got := ApplyPercent(MustMoney("900.00"), MustMoney("18"))
	assert.True(t, got.Equal(MustMoney("162.00")), "got %s", got)

	// 2124.00 * 5% = 106.20
	got = ApplyPercent(MustMoney("2124.00"), MustMoney("5"))
	assert.True(t, got.Equal(MustMoney("106.20")), "got %s", got)

	// Rounding kicks in: 33.33 * 7.5% = 2.49975 -> 2.50
	got = ApplyPercent(MustMoney("33.33"), MustMoney("7.5"))
	assert.True(t, got.Equal(MustMoney("2.50")), "got %s", got)
}

func TestQuantity_StringAndDecimal(t *testing.T) {
	q := NewQuantityFromFloat64(10.5)
	assert.Equal(t, "10.500", q.String())
	assert.Equal(t, "10.5", q.Decimal().String())

	neg := NewQuantityFromFloat64(-0.125)
	assert.Equal(t, "-0.125", neg.String())

	whole := NewQuantityFromInt(10)
	assert.Equal(t, "10.000", whole.String())
}

func TestQuantity_JSONRoundTrip(t *testing.T) {
	q := NewQuantityFromFloat64(2.375)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "2.375", string(data))

	var parsed Quantity
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, q, parsed)

	// Strings are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`"7.25"`), &parsed))
	assert.Equal(t, NewQuantityFromFloat64(7.25), parsed)
}

func TestQuantity_ParseTruncatesExtraDigits(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte("1.23456"), &q))
	assert.Equal(t, NewQuantityFromInt64Scaled(1234), q)
}
