package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/core/types"
)

func TestProduct_Validate(t *testing.T) {
	ctx := context.Background()

	p := NewProduct("t1", "PR-00001", "Cotton twill 240gsm", UnitRoll)
	p.UnitPrice = types.MustMoney("125.50")
	p.TaxPct = types.MustMoney("5")
	require.NoError(t, p.Validate(ctx))

	t.Run("negative price", func(t *testing.T) {
		bad := NewProduct("t1", "PR-00002", "Linen blend", UnitMeter)
		bad.UnitPrice = types.MustMoney("-1")
		assert.Error(t, bad.Validate(ctx))
	})

	t.Run("tax out of range", func(t *testing.T) {
		bad := NewProduct("t1", "PR-00003", "Denim", UnitRoll)
		bad.TaxPct = types.MustMoney("101")
		assert.Error(t, bad.Validate(ctx))
	})

	t.Run("unknown unit", func(t *testing.T) {
		bad := NewProduct("t1", "PR-00004", "Denim", Unit("yard"))
		assert.Error(t, bad.Validate(ctx))
	})

	t.Run("missing name", func(t *testing.T) {
		bad := NewProduct("t1", "PR-00005", "", UnitRoll)
		assert.Error(t, bad.Validate(ctx))
	})
}

func TestProduct_IsFabric(t *testing.T) {
	assert.True(t, NewProduct("t1", "c", "n", UnitRoll).IsFabric())
	assert.True(t, NewProduct("t1", "c", "n", UnitKg).IsFabric())
	assert.False(t, NewProduct("t1", "c", "n", UnitPiece).IsFabric())
}
