// Package customer provides the Customer catalog.
// Customers are the buyers quotations and sale invoices are issued to.
package customer

import (
	"context"
	"strings"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/entity"
	"fabriq/internal/core/types"
)

// Customer represents a buyer.
type Customer struct {
	entity.Catalog

	// TIN is the tax identification number (unique within tenant when set)
	TIN *string `db:"tin" json:"tin,omitempty"`

	// Email is the billing contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Phone is the contact phone number
	Phone *string `db:"phone" json:"phone,omitempty"`

	// BillingAddress is the invoicing address
	BillingAddress *string `db:"billing_address" json:"billingAddress,omitempty"`

	// ShippingAddress is the delivery address (falls back to billing)
	ShippingAddress *string `db:"shipping_address" json:"shippingAddress,omitempty"`

	// DefaultDiscountPct is the negotiated document discount, applied to
	// new documents that do not override it
	DefaultDiscountPct *types.Money `db:"default_discount_pct" json:"defaultDiscountPct,omitempty"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(tenantID, code, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(tenantID, code, name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Email != nil && *c.Email != "" && !strings.Contains(*c.Email, "@") {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email").
			WithDetail("value", *c.Email)
	}

	if c.DefaultDiscountPct != nil {
		pct := *c.DefaultDiscountPct
		if pct.IsNegative() || pct.GreaterThan(types.MustMoney("100")) {
			return apperror.NewValidation("default discount must be between 0 and 100").
				WithDetail("field", "defaultDiscountPct").
				WithDetail("value", pct.String())
		}
	}

	return nil
}
