// Package pricing implements the cascading document pricing engine:
// line tax and discount, document discount, totals. All functions are pure;
// persistence and status rules live with the document services.
package pricing

import (
	"fabriq/internal/core/apperror"
	"fabriq/internal/core/types"
)

// LineInput carries the pricing inputs for a single line item.
//
// Exactly one of DiscountPct / DiscountAmt is authoritative per call:
// when DiscountPct is set the amount is derived from it, otherwise
// DiscountAmt is used as-is, with no re-derivation of a percentage.
type LineInput struct {
	Quantity    types.Quantity
	UnitPrice   types.Money
	DiscountPct *types.Money
	DiscountAmt types.Money
	TaxPct      types.Money
}

// LinePrice is the computed price breakdown for a single line item.
// All monetary fields carry exactly 2 decimal places.
type LinePrice struct {
	GrossAmount    types.Money // quantity × unitPrice, rounded
	DiscountAmount types.Money
	DiscountedBase types.Money // gross − discount; the tax base
	TaxAmount      types.Money // tax computed on the discounted base
	FinalPrice     types.Money // discountedBase + taxAmount
}

// PriceLine computes a line item's final price.
//
// discountAmount = round(quantity×unitPrice × pct/100, 2) when a percentage
// is supplied, half-up; an explicit amount is used as-is. Tax is always
// computed on the discounted base, never on the gross amount.
func PriceLine(in LineInput) (LinePrice, error) {
	if !in.Quantity.IsPositive() {
		return LinePrice{}, apperror.NewInvalidQuantity(in.Quantity.String())
	}
	if in.UnitPrice.IsNegative() {
		return LinePrice{}, apperror.NewValidation("unit price must not be negative").
			WithDetail("unit_price", in.UnitPrice.String())
	}
	if in.TaxPct.IsNegative() {
		return LinePrice{}, apperror.NewValidation("tax percentage must not be negative").
			WithDetail("tax_pct", in.TaxPct.String())
	}

	gross := types.RoundMoney(in.Quantity.Decimal().Mul(in.UnitPrice))

	var discount types.Money
	if in.DiscountPct != nil {
		if in.DiscountPct.IsNegative() {
			return LinePrice{}, apperror.NewInvalidDiscount(in.DiscountPct.String()+"%", gross.StringFixed(2))
		}
		discount = types.ApplyPercent(gross, *in.DiscountPct)
	} else {
		if in.DiscountAmt.IsNegative() {
			return LinePrice{}, apperror.NewInvalidDiscount(in.DiscountAmt.StringFixed(2), gross.StringFixed(2))
		}
		discount = types.RoundMoney(in.DiscountAmt)
	}

	base := gross.Sub(discount)
	if base.IsNegative() {
		return LinePrice{}, apperror.NewInvalidDiscount(discount.StringFixed(2), gross.StringFixed(2))
	}

	tax := types.ApplyPercent(base, in.TaxPct)

	return LinePrice{
		GrossAmount:    gross,
		DiscountAmount: discount,
		DiscountedBase: base,
		TaxAmount:      tax,
		FinalPrice:     base.Add(tax),
	}, nil
}
