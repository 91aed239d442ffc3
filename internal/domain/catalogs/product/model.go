// Package product provides the Product catalog.
// Products are the fabric articles sold by the line: woven and knitted
// rolls, trims, and made-up goods.
package product

import (
	"context"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/entity"
	"fabriq/internal/core/types"
)

// Unit defines the unit of measure a product is sold in.
type Unit string

const (
	UnitRoll  Unit = "roll"
	UnitMeter Unit = "meter"
	UnitKg    Unit = "kg"
	UnitPiece Unit = "piece"
)

// Product represents a sellable fabric article.
type Product struct {
	entity.Catalog

	// SKU is the article number (unique within tenant when set)
	SKU *string `db:"sku" json:"sku,omitempty"`

	// Unit is the unit of measure quantities are expressed in
	Unit Unit `db:"unit" json:"unit"`

	// UnitPrice is the default price per unit, applied to document lines
	// that do not override it
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// TaxPct is the default tax percentage for this product
	TaxPct types.Money `db:"tax_pct" json:"taxPct"`

	// WidthCm is the fabric width in centimeters (woven/knitted goods)
	WidthCm *int `db:"width_cm" json:"widthCm,omitempty"`

	// GSM is grams per square meter (fabric weight class)
	GSM *int `db:"gsm" json:"gsm,omitempty"`

	// Composition describes the fiber mix (e.g. "100% cotton")
	Composition *string `db:"composition" json:"composition,omitempty"`

	// Description is a free-form detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(tenantID, code, name string, unit Unit) *Product {
	return &Product{
		Catalog:   entity.NewCatalog(tenantID, code, name),
		Unit:      unit,
		UnitPrice: types.ZeroMoney(),
		TaxPct:    types.ZeroMoney(),
	}
}

func isValidUnit(u Unit) bool {
	switch u {
	case UnitRoll, UnitMeter, UnitKg, UnitPiece:
		return true
	}
	return false
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidUnit(p.Unit) {
		return apperror.NewValidation("invalid unit of measure").
			WithDetail("field", "unit").
			WithDetail("value", string(p.Unit))
	}

	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	if p.TaxPct.IsNegative() || p.TaxPct.GreaterThan(types.MustMoney("100")) {
		return apperror.NewValidation("tax percentage must be between 0 and 100").
			WithDetail("field", "taxPct").
			WithDetail("value", p.TaxPct.String())
	}

	if p.WidthCm != nil && *p.WidthCm <= 0 {
		return apperror.NewValidation("width must be positive").
			WithDetail("field", "widthCm")
	}

	if p.GSM != nil && *p.GSM <= 0 {
		return apperror.NewValidation("gsm must be positive").
			WithDetail("field", "gsm")
	}

	return nil
}

// IsFabric returns true if the product is sold in length or weight units.
func (p *Product) IsFabric() bool {
	return p.Unit == UnitRoll || p.Unit == UnitMeter || p.Unit == UnitKg
}
