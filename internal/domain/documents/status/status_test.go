package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/core/apperror"
)

// Exactly the allowed edges succeed; every other pairwise transition fails.
func TestQuotationTransitions_FullGrid(t *testing.T) {
	all := []QuotationStatus{
		QuotationDraft, QuotationQuoted, QuotationAccepted,
		QuotationRejected, QuotationExpired, QuotationConverted,
	}
	allowed := map[QuotationStatus][]QuotationStatus{
		QuotationDraft:    {QuotationQuoted},
		QuotationQuoted:   {QuotationAccepted, QuotationRejected, QuotationExpired},
		QuotationAccepted: {QuotationConverted},
	}

	for _, from := range all {
		for _, to := range all {
			wantOK := false
			for _, a := range allowed[from] {
				if a == to {
					wantOK = true
				}
			}

			err := from.Transition(to)
			if wantOK {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
			} else {
				require.Error(t, err, "%s -> %s should be rejected", from, to)
				assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
			}
		}
	}
}

func TestItemTransitions_FullGrid(t *testing.T) {
	all := []ItemStatus{ItemOpen, ItemInProduction, ItemProduced, ItemDispatched, ItemCancelled}
	allowed := map[ItemStatus][]ItemStatus{
		ItemOpen:         {ItemInProduction, ItemCancelled},
		ItemInProduction: {ItemProduced},
		ItemProduced:     {ItemDispatched},
	}

	for _, from := range all {
		for _, to := range all {
			wantOK := false
			for _, a := range allowed[from] {
				if a == to {
					wantOK = true
				}
			}

			err := from.Transition(to)
			if wantOK {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
			} else {
				require.Error(t, err, "%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestSaleTransitions(t *testing.T) {
	assert.NoError(t, SaleDraft.Transition(SaleConfirmed))
	assert.NoError(t, SaleDraft.Transition(SaleCancelled))
	assert.NoError(t, SaleConfirmed.Transition(SaleClosed))

	assert.Error(t, SaleConfirmed.Transition(SaleDraft))
	assert.Error(t, SaleClosed.Transition(SaleConfirmed))
	assert.Error(t, SaleCancelled.Transition(SaleConfirmed))
}

func TestTransition_UnknownTarget(t *testing.T) {
	err := QuotationDraft.Transition(QuotationStatus("BOGUS"))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, QuotationRejected.IsTerminal())
	assert.True(t, QuotationExpired.IsTerminal())
	assert.True(t, QuotationConverted.IsTerminal())
	assert.False(t, QuotationAccepted.IsTerminal())

	assert.True(t, ItemDispatched.IsTerminal())
	assert.True(t, ItemCancelled.IsTerminal())
	assert.False(t, ItemProduced.IsTerminal())
}

func TestEditabilityGates(t *testing.T) {
	assert.True(t, QuotationDraft.AllowsItemEdits())
	assert.True(t, QuotationQuoted.AllowsItemEdits())
	assert.False(t, QuotationAccepted.AllowsItemEdits())

	assert.True(t, QuotationQuoted.AllowsProductionStart())
	assert.True(t, QuotationAccepted.AllowsProductionStart())
	assert.False(t, QuotationDraft.AllowsProductionStart())

	assert.True(t, ItemOpen.IsOpen())
	assert.False(t, ItemInProduction.IsOpen())
}
