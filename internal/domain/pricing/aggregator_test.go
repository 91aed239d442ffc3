package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/types"
)

func referenceLines(t *testing.T) []LineTotal {
	t.Helper()
	line, err := PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(10),
		UnitPrice:   types.MustMoney("100.00"),
		DiscountPct: pct("10"),
		TaxPct:      types.MustMoney("18"),
	})
	require.NoError(t, err)
	return []LineTotal{
		{FinalPrice: line.FinalPrice, TaxAmount: line.TaxAmount},
		{FinalPrice: line.FinalPrice, TaxAmount: line.TaxAmount},
	}
}

func TestAggregate_ReferenceScenario(t *testing.T) {
	// Two 1062.00 lines, 5% document discount, 50.00 packaging.
	got, err := Aggregate(referenceLines(t), DocumentDiscount{Pct: pct("5")}, types.MustMoney("50.00"), AggregateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "2124.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "324.00", got.TaxTotal.StringFixed(2))
	assert.Equal(t, "106.20", got.DocumentDiscountAmount.StringFixed(2))
	assert.Equal(t, "2067.80", got.GrandTotal.StringFixed(2))
}

// Aggregation must be idempotent: re-running it on an unchanged line set
// yields identical totals (no compounding of the document discount).
func TestAggregate_Idempotent(t *testing.T) {
	lines := referenceLines(t)
	disc := DocumentDiscount{Pct: pct("5")}
	charge := types.MustMoney("50.00")

	first, err := Aggregate(lines, disc, charge, AggregateOptions{})
	require.NoError(t, err)
	second, err := Aggregate(lines, disc, charge, AggregateOptions{})
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.DocumentDiscountAmount.Equal(second.DocumentDiscountAmount))
	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
}

func TestAggregate_ExcludesCancelledLines(t *testing.T) {
	lines := referenceLines(t)
	lines[1].Cancelled = true

	got, err := Aggregate(lines, DocumentDiscount{}, types.ZeroMoney(), AggregateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1062.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "162.00", got.TaxTotal.StringFixed(2))
	assert.Equal(t, "1062.00", got.GrandTotal.StringFixed(2))
}

func TestAggregate_ExplicitAmountWhenPctAbsent(t *testing.T) {
	got, err := Aggregate(referenceLines(t), DocumentDiscount{Amt: types.MustMoney("100.00")}, types.ZeroMoney(), AggregateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.DocumentDiscountAmount.StringFixed(2))
	assert.Equal(t, "2024.00", got.GrandTotal.StringFixed(2))
}

func TestAggregate_NegativeTotalRejected(t *testing.T) {
	lines := []LineTotal{{FinalPrice: types.MustMoney("10.00")}}

	_, err := Aggregate(lines, DocumentDiscount{Amt: types.MustMoney("25.00")}, types.ZeroMoney(), AggregateOptions{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeTotal))
}

func TestAggregate_NegativeTotalClampedWhenAllowed(t *testing.T) {
	lines := []LineTotal{{FinalPrice: types.MustMoney("10.00")}}

	got, err := Aggregate(lines, DocumentDiscount{Amt: types.MustMoney("25.00")}, types.ZeroMoney(), AggregateOptions{AllowZeroTotal: true})
	require.NoError(t, err)
	assert.True(t, got.GrandTotal.IsZero())
}

func TestAggregate_EmptyLineSet(t *testing.T) {
	got, err := Aggregate(nil, DocumentDiscount{}, types.ZeroMoney(), AggregateOptions{})
	require.NoError(t, err)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.GrandTotal.IsZero())
}

func TestAggregate_PackagingChargeAddedAfterDiscount(t *testing.T) {
	lines := []LineTotal{{FinalPrice: types.MustMoney("100.00")}}

	// 10% of 100.00 = 10.00; packaging must not be discounted.
	got, err := Aggregate(lines, DocumentDiscount{Pct: pct("10")}, types.MustMoney("30.00"), AggregateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.DocumentDiscountAmount.StringFixed(2))
	assert.Equal(t, "120.00", got.GrandTotal.StringFixed(2))
}
