package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/types"
)

func TestCompilePolicy_Empty(t *testing.T) {
	p, err := CompilePolicy("")
	require.NoError(t, err)
	assert.Nil(t, p)
	// nil policy permits everything
	assert.NoError(t, p.Check(PolicyInput{}))
}

func TestCompilePolicy_Invalid(t *testing.T) {
	_, err := CompilePolicy("doc_discount_pct <=")
	require.Error(t, err)

	_, err = CompilePolicy("unknown_variable > 1.0")
	require.Error(t, err)
}

func TestPolicy_Check(t *testing.T) {
	p, err := CompilePolicy("doc_discount_pct <= 30.0 && line_count >= 1")
	require.NoError(t, err)

	ok := PolicyInput{
		DocDiscountPct: types.MustMoney("5"),
		LineCount:      2,
	}
	assert.NoError(t, p.Check(ok))

	tooDeep := PolicyInput{
		DocDiscountPct: types.MustMoney("45"),
		LineCount:      2,
	}
	err = p.Check(tooDeep)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyViolation))
}

func TestPolicy_TotalsVariables(t *testing.T) {
	p, err := CompilePolicy("packaging_charge < subtotal && grand_total > 0.0")
	require.NoError(t, err)

	assert.NoError(t, p.Check(PolicyInput{
		PackagingCharge: types.MustMoney("50.00"),
		Subtotal:        types.MustMoney("2124.00"),
		GrandTotal:      types.MustMoney("2067.80"),
	}))

	err = p.Check(PolicyInput{
		PackagingCharge: types.MustMoney("50.00"),
		Subtotal:        types.MustMoney("10.00"),
		GrandTotal:      types.MustMoney("60.00"),
	})
	require.Error(t, err)
}
