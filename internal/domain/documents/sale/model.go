// Package sale provides the SaleInvoice document: the binding commercial
// document a quotation converts into, carrying its own number series and an
// independent line set.
package sale

import (
	"context"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/entity"
	"fabriq/internal/core/id"
	"fabriq/internal/core/types"
	"fabriq/internal/domain/documents/status"
	"fabriq/internal/domain/pricing"
)

// SaleInvoice represents a sale invoice document.
type SaleInvoice struct {
	entity.Document

	// Customer reference
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// Status drives which edits and transitions are allowed
	Status status.SaleStatus `db:"status" json:"status"`

	// SourceQuotationID links back to the converted quotation, when any
	SourceQuotationID *id.ID `db:"source_quotation_id" json:"sourceQuotationId,omitempty"`

	// Document-level discount. Pct is authoritative when set.
	DocDiscountPct *types.Money `db:"doc_discount_pct" json:"docDiscountPct,omitempty"`
	DocDiscountAmt types.Money  `db:"doc_discount_amt" json:"docDiscountAmt"`

	// PackagingCharge is added after the document discount
	PackagingCharge types.Money `db:"packaging_charge" json:"packagingCharge"`

	// Totals (calculated from lines, persisted for listing)
	Subtotal          types.Money `db:"subtotal" json:"subtotal"`
	TaxTotal          types.Money `db:"tax_total" json:"taxTotal"`
	DocDiscountAmount types.Money `db:"doc_discount_amount" json:"docDiscountAmount"`
	GrandTotal        types.Money `db:"grand_total" json:"grandTotal"`

	// Table part: invoiced items
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one invoiced item.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// SourceLineID references the quotation line this one was copied from.
	// Nil for lines added directly on the invoice.
	SourceLineID *id.ID `db:"source_line_id" json:"sourceLineId,omitempty"`

	// Pricing inputs. DiscountPct is authoritative when set.
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`
	DiscountPct *types.Money   `db:"discount_pct" json:"discountPct,omitempty"`
	DiscountAmt types.Money    `db:"discount_amt" json:"discountAmt"`
	TaxPct      types.Money    `db:"tax_pct" json:"taxPct"`

	// Computed breakdown (2 decimal places)
	GrossAmount    types.Money `db:"gross_amount" json:"grossAmount"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	FinalPrice     types.Money `db:"final_price" json:"finalPrice"`

	// Status is the production lifecycle of the item
	Status status.ItemStatus `db:"status" json:"status"`

	// Fulfillment tracking
	ProducedQty   types.Quantity `db:"produced_qty" json:"producedQty"`
	DispatchedQty types.Quantity `db:"dispatched_qty" json:"dispatchedQty"`
}

// NewSaleInvoice creates a new draft sale invoice.
func NewSaleInvoice(tenantID string, customerID id.ID) *SaleInvoice {
	return &SaleInvoice{
		Document:        entity.NewDocument(tenantID),
		CustomerID:      customerID,
		Status:          status.SaleDraft,
		DocDiscountAmt:  types.ZeroMoney(),
		PackagingCharge: types.ZeroMoney(),
		Lines:           make([]Line, 0),
	}
}

// NewLine creates an open line with a fresh line ID.
func NewLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) Line {
	return Line{
		LineID:      id.New(),
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		DiscountAmt: types.ZeroMoney(),
		TaxPct:      types.ZeroMoney(),
		Status:      status.ItemOpen,
	}
}

// AddLine appends a line and assigns its line number.
// Totals are not recalculated here; call Reprice before persisting.
func (s *SaleInvoice) AddLine(line Line) {
	if id.IsNil(line.LineID) {
		line.LineID = id.New()
	}
	if line.Status == "" {
		line.Status = status.ItemOpen
	}
	line.LineNo = len(s.Lines) + 1
	s.Lines = append(s.Lines, line)
}

// FindLine returns the line with the given ID, or nil.
func (s *SaleInvoice) FindLine(lineID id.ID) *Line {
	for i := range s.Lines {
		if s.Lines[i].LineID == lineID {
			return &s.Lines[i]
		}
	}
	return nil
}

func (l *Line) pricingInput() pricing.LineInput {
	return pricing.LineInput{
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		DiscountPct: l.DiscountPct,
		DiscountAmt: l.DiscountAmt,
		TaxPct:      l.TaxPct,
	}
}

func (l *Line) applyPrice(p pricing.LinePrice) {
	l.GrossAmount = p.GrossAmount
	l.DiscountAmount = p.DiscountAmount
	l.TaxAmount = p.TaxAmount
	l.FinalPrice = p.FinalPrice
}

// PriceFieldsEqual reports whether the pricing inputs of two lines match.
func (l *Line) PriceFieldsEqual(other *Line) bool {
	if l.Quantity != other.Quantity {
		return false
	}
	if !l.UnitPrice.Equal(other.UnitPrice) {
		return false
	}
	if (l.DiscountPct == nil) != (other.DiscountPct == nil) {
		return false
	}
	if l.DiscountPct != nil && !l.DiscountPct.Equal(*other.DiscountPct) {
		return false
	}
	if !l.DiscountAmt.Equal(other.DiscountAmt) {
		return false
	}
	return l.TaxPct.Equal(other.TaxPct)
}

// HeaderPricingEqual reports whether the document-level pricing inputs match.
// Used to detect forbidden header edits once pricing is frozen; an update
// that echoes the stored values back is not an edit.
func (s *SaleInvoice) HeaderPricingEqual(other *SaleInvoice) bool {
	if (s.DocDiscountPct == nil) != (other.DocDiscountPct == nil) {
		return false
	}
	if s.DocDiscountPct != nil && !s.DocDiscountPct.Equal(*other.DocDiscountPct) {
		return false
	}
	if !s.DocDiscountAmt.Equal(other.DocDiscountAmt) {
		return false
	}
	return s.PackagingCharge.Equal(other.PackagingCharge)
}

// Reprice recomputes the price breakdown of every open line and the document
// totals, with the same ordering and idempotency guarantees as on quotations.
func (s *SaleInvoice) Reprice(opts pricing.AggregateOptions) error {
	lineTotals := make([]pricing.LineTotal, 0, len(s.Lines))

	for i := range s.Lines {
		line := &s.Lines[i]

		if line.Status.IsOpen() {
			p, err := pricing.PriceLine(line.pricingInput())
			if err != nil {
				if appErr, ok := apperror.AsAppError(err); ok {
					return appErr.WithDetail("lineNo", line.LineNo)
				}
				return err
			}
			line.applyPrice(p)
		}

		lineTotals = append(lineTotals, pricing.LineTotal{
			FinalPrice: line.FinalPrice,
			TaxAmount:  line.TaxAmount,
			Cancelled:  line.Status.IsCancelled(),
		})
	}

	totals, err := pricing.Aggregate(lineTotals, pricing.DocumentDiscount{
		Pct: s.DocDiscountPct,
		Amt: s.DocDiscountAmt,
	}, s.PackagingCharge, opts)
	if err != nil {
		return err
	}

	s.Subtotal = totals.Subtotal
	s.TaxTotal = totals.TaxTotal
	s.DocDiscountAmount = totals.DocumentDiscountAmount
	s.GrandTotal = totals.GrandTotal
	return nil
}

// PolicyInput exposes the document's pricing figures to the tenant policy.
func (s *SaleInvoice) PolicyInput() pricing.PolicyInput {
	in := pricing.PolicyInput{
		DocDiscountAmt:  s.DocDiscountAmt,
		PackagingCharge: s.PackagingCharge,
		Subtotal:        s.Subtotal,
		GrandTotal:      s.GrandTotal,
	}
	if s.DocDiscountPct != nil {
		in.DocDiscountPct = *s.DocDiscountPct
	}
	for i := range s.Lines {
		if !s.Lines[i].Status.IsCancelled() {
			in.LineCount++
		}
	}
	return in
}

// Validate implements entity.Validatable.
func (s *SaleInvoice) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(s.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if !s.Status.Valid() {
		return apperror.NewValidation("unknown sale status").
			WithDetail("field", "status").
			WithDetail("value", string(s.Status))
	}

	if len(s.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i := range s.Lines {
		line := &s.Lines[i]
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewInvalidQuantity(line.Quantity.String()).
				WithDetail("lineNo", i+1)
		}
		if !line.Status.Valid() {
			return apperror.NewValidation("unknown item status").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1).
				WithDetail("value", string(line.Status))
		}
	}

	return nil
}
