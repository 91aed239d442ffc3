package pricing

import (
	"fabriq/internal/core/apperror"
	"fabriq/internal/core/types"
)

// LineTotal is the per-line contribution to document totals.
// Cancelled lines are carried but excluded from every sum.
type LineTotal struct {
	FinalPrice types.Money
	TaxAmount  types.Money
	Cancelled  bool
}

// DocumentDiscount is the document-level discount input. Pct is authoritative
// when set; Amt is used only when Pct is nil.
type DocumentDiscount struct {
	Pct *types.Money
	Amt types.Money
}

// Totals is the aggregated result persisted on the document.
type Totals struct {
	Subtotal               types.Money
	TaxTotal               types.Money
	DocumentDiscountAmount types.Money
	GrandTotal             types.Money
}

// AggregateOptions configures edge-case policy.
type AggregateOptions struct {
	// AllowZeroTotal clamps a negative grand total to zero instead of
	// rejecting the document.
	AllowZeroTotal bool
}

// Aggregate folds line totals into document totals.
//
// The document discount applies to the subtotal of already-taxed,
// already-discounted lines. That ordering makes aggregation idempotent:
// re-running it on an unchanged line set yields identical totals, with no
// compounding of the document-level discount.
func Aggregate(items []LineTotal, disc DocumentDiscount, packagingCharge types.Money, opts AggregateOptions) (Totals, error) {
	if packagingCharge.IsNegative() {
		return Totals{}, apperror.NewValidation("packaging charge must not be negative").
			WithDetail("packaging_charge", packagingCharge.String())
	}

	subtotal := types.ZeroMoney()
	taxTotal := types.ZeroMoney()
	for _, item := range items {
		if item.Cancelled {
			continue
		}
		subtotal = subtotal.Add(item.FinalPrice)
		taxTotal = taxTotal.Add(item.TaxAmount)
	}

	var docDiscount types.Money
	if disc.Pct != nil {
		if disc.Pct.IsNegative() {
			return Totals{}, apperror.NewInvalidDiscount(disc.Pct.String()+"%", subtotal.StringFixed(2))
		}
		docDiscount = types.ApplyPercent(subtotal, *disc.Pct)
	} else {
		if disc.Amt.IsNegative() {
			return Totals{}, apperror.NewInvalidDiscount(disc.Amt.StringFixed(2), subtotal.StringFixed(2))
		}
		docDiscount = types.RoundMoney(disc.Amt)
	}

	raw := subtotal.Sub(docDiscount).Add(packagingCharge)
	grand := raw
	if raw.IsNegative() {
		if !opts.AllowZeroTotal {
			return Totals{}, apperror.NewNegativeTotal(raw.StringFixed(2))
		}
		grand = types.ZeroMoney()
	}

	return Totals{
		Subtotal:               subtotal,
		TaxTotal:               taxTotal,
		DocumentDiscountAmount: docDiscount,
		GrandTotal:             grand,
	}, nil
}
