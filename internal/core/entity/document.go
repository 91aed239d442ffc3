package entity

import (
	"context"
	"time"

	"fabriq/internal/core/apperror"
)

// Document is the base type for business transactions.
// Examples: Quotation, SaleInvoice.
type Document struct {
	BaseDocument

	// Sequence is the allocated numeric value, unique within tenant+type.
	// Zero until the numbering service assigns it; immutable afterwards.
	Sequence int64 `db:"sequence" json:"sequence"`

	// Number is the formatted display number (e.g. "QT-00042").
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(tenantID string) Document {
	return Document{
		BaseDocument: NewBaseDocument(tenantID),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.TenantID == "" {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// IsNumbered reports whether a sequence number has been assigned.
func (d *Document) IsNumbered() bool {
	return d.Sequence > 0
}

// Catalog is the base type for reference data.
// Examples: Product, Customer.
type Catalog struct {
	BaseCatalog

	// Code is a human-readable identifier (unique within tenant)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(tenantID, code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(tenantID),
		Code:        code,
		Name:        name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.TenantID == "" {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
