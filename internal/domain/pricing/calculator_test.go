package pricing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/types"
)

func pct(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func TestPriceLine_ReferenceScenario(t *testing.T) {
	// quantity=10, unitPrice=100.00, discount=10%, tax=18%
	got, err := PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(10),
		UnitPrice:   types.MustMoney("100.00"),
		DiscountPct: pct("10"),
		TaxPct:      types.MustMoney("18"),
	})
	require.NoError(t, err)

	assert.Equal(t, "1000.00", got.GrossAmount.StringFixed(2))
	assert.Equal(t, "100.00", got.DiscountAmount.StringFixed(2))
	assert.Equal(t, "900.00", got.DiscountedBase.StringFixed(2))
	assert.Equal(t, "162.00", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "1062.00", got.FinalPrice.StringFixed(2))
}

func TestPriceLine_ExplicitAmountIsAuthoritativeWhenPctAbsent(t *testing.T) {
	got, err := PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(2),
		UnitPrice:   types.MustMoney("50.00"),
		DiscountAmt: types.MustMoney("15.00"),
		TaxPct:      types.MustMoney("10"),
	})
	require.NoError(t, err)

	// Amount used as-is, never converted back to a percentage.
	assert.Equal(t, "15.00", got.DiscountAmount.StringFixed(2))
	assert.Equal(t, "85.00", got.DiscountedBase.StringFixed(2))
	assert.Equal(t, "8.50", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "93.50", got.FinalPrice.StringFixed(2))
}

func TestPriceLine_PctWinsOverAmount(t *testing.T) {
	got, err := PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(1),
		UnitPrice:   types.MustMoney("200.00"),
		DiscountPct: pct("25"),
		DiscountAmt: types.MustMoney("999.00"), // ignored
		TaxPct:      types.MustMoney("0"),
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", got.DiscountAmount.StringFixed(2))
}

func TestPriceLine_FractionalQuantityRounding(t *testing.T) {
	// 2.375 rolls × 10.99 = 26.10125 -> 26.10
	got, err := PriceLine(LineInput{
		Quantity:  types.NewQuantityFromFloat64(2.375),
		UnitPrice: types.MustMoney("10.99"),
		TaxPct:    types.MustMoney("18"),
	})
	require.NoError(t, err)
	assert.Equal(t, "26.10", got.GrossAmount.StringFixed(2))
	// 26.10 * 18% = 4.698 -> 4.70
	assert.Equal(t, "4.70", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "30.80", got.FinalPrice.StringFixed(2))
}

func TestPriceLine_InvalidQuantity(t *testing.T) {
	for _, qty := range []types.Quantity{0, types.NewQuantityFromInt(-1)} {
		_, err := PriceLine(LineInput{
			Quantity:  qty,
			UnitPrice: types.MustMoney("10.00"),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity), "qty=%s", qty)
	}
}

func TestPriceLine_InvalidDiscount(t *testing.T) {
	// Explicit amount larger than the base.
	_, err := PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(1),
		UnitPrice:   types.MustMoney("10.00"),
		DiscountAmt: types.MustMoney("10.01"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidDiscount))

	// Negative percentage.
	_, err = PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(1),
		UnitPrice:   types.MustMoney("10.00"),
		DiscountPct: pct("-5"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidDiscount))
}

func TestPriceLine_HundredPercentDiscountIsValid(t *testing.T) {
	got, err := PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(3),
		UnitPrice:   types.MustMoney("7.00"),
		DiscountPct: pct("100"),
		TaxPct:      types.MustMoney("18"),
	})
	require.NoError(t, err)
	assert.True(t, got.FinalPrice.IsZero(), "final price %s", got.FinalPrice)
}

// Re-pricing the calculator's own output as fresh input must never increase
// the total: no double taxation, no double discount.
func TestPriceLine_NoCompoundingOnOwnOutput(t *testing.T) {
	first, err := PriceLine(LineInput{
		Quantity:    types.NewQuantityFromInt(10),
		UnitPrice:   types.MustMoney("100.00"),
		DiscountPct: pct("10"),
		TaxPct:      types.MustMoney("18"),
	})
	require.NoError(t, err)

	// Feed discountedBase back with no discount and no tax: value unchanged.
	second, err := PriceLine(LineInput{
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: first.DiscountedBase,
		TaxPct:    types.MustMoney("0"),
	})
	require.NoError(t, err)
	assert.True(t, second.FinalPrice.Equal(first.DiscountedBase))
	assert.True(t, second.FinalPrice.LessThanOrEqual(first.FinalPrice))
}

func TestPriceLine_FinalPriceNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		in := LineInput{
			Quantity:  types.NewQuantityFromFloat64(rng.Float64()*100 + 0.001),
			UnitPrice: types.RoundMoney(types.NewMoneyFromFloat(rng.Float64() * 1000)),
			TaxPct:    types.NewMoneyFromFloat(rng.Float64() * 30),
		}
		if rng.Intn(2) == 0 {
			p := types.NewMoneyFromFloat(rng.Float64() * 100)
			in.DiscountPct = &p
		}

		got, err := PriceLine(in)
		require.NoError(t, err, "iteration %d", i)
		assert.False(t, got.FinalPrice.IsNegative(), "iteration %d: final price %s", i, got.FinalPrice)
		assert.False(t, got.DiscountedBase.IsNegative(), "iteration %d", i)
	}
}
