// Package quotation provides the Quotation document: a priced offer to a
// customer that can later be converted into a sale invoice.
package quotation

import (
	"context"
	"time"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/entity"
	"fabriq/internal/core/id"
	"fabriq/internal/core/types"
	"fabriq/internal/domain/documents/status"
	"fabriq/internal/domain/pricing"
)

// Quotation represents a quotation document.
type Quotation struct {
	entity.Document

	// Customer reference
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// Status drives which edits and transitions are allowed
	Status status.QuotationStatus `db:"status" json:"status"`

	// ValidUntil is the offer expiry date (informational; expiry is an
	// explicit status transition, not a background job)
	ValidUntil *time.Time `db:"valid_until" json:"validUntil,omitempty"`

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

	// Table part: quoted items
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one quoted item.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

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

// NewQuotation creates a new draft quotation.
func NewQuotation(tenantID string, customerID id.ID) *Quotation {
	return &Quotation{
		Document:        entity.NewDocument(tenantID),
		CustomerID:      customerID,
		Status:          status.QuotationDraft,
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
func (q *Quotation) AddLine(line Line) {
	if id.IsNil(line.LineID) {
		line.LineID = id.New()
	}
	if line.Status == "" {
		line.Status = status.ItemOpen
	}
	line.LineNo = len(q.Lines) + 1
	q.Lines = append(q.Lines, line)
}

// FindLine returns the line with the given ID, or nil.
func (q *Quotation) FindLine(lineID id.ID) *Line {
	for i := range q.Lines {
		if q.Lines[i].LineID == lineID {
			return &q.Lines[i]
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
// Used to detect forbidden edits on locked (non-open) lines.
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
func (q *Quotation) HeaderPricingEqual(other *Quotation) bool {
	if (q.DocDiscountPct == nil) != (other.DocDiscountPct == nil) {
		return false
	}
	if q.DocDiscountPct != nil && !q.DocDiscountPct.Equal(*other.DocDiscountPct) {
		return false
	}
	if !q.DocDiscountAmt.Equal(other.DocDiscountAmt) {
		return false
	}
	return q.PackagingCharge.Equal(other.PackagingCharge)
}

// Reprice recomputes the price breakdown of every open line and the document
// totals. Locked lines keep their stored breakdown; cancelled lines are
// excluded from totals. Repricing an unchanged document yields identical
// totals, so the operation is safe to run on every save.
func (q *Quotation) Reprice(opts pricing.AggregateOptions) error {
	lineTotals := make([]pricing.LineTotal, 0, len(q.Lines))

	for i := range q.Lines {
		line := &q.Lines[i]

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
		Pct: q.DocDiscountPct,
		Amt: q.DocDiscountAmt,
	}, q.PackagingCharge, opts)
	if err != nil {
		return err
	}

	q.Subtotal = totals.Subtotal
	q.TaxTotal = totals.TaxTotal
	q.DocDiscountAmount = totals.DocumentDiscountAmount
	q.GrandTotal = totals.GrandTotal
	return nil
}

// PolicyInput exposes the document's pricing figures to the tenant policy.
func (q *Quotation) PolicyInput() pricing.PolicyInput {
	in := pricing.PolicyInput{
		DocDiscountAmt:  q.DocDiscountAmt,
		PackagingCharge: q.PackagingCharge,
		Subtotal:        q.Subtotal,
		GrandTotal:      q.GrandTotal,
	}
	if q.DocDiscountPct != nil {
		in.DocDiscountPct = *q.DocDiscountPct
	}
	for i := range q.Lines {
		if !q.Lines[i].Status.IsCancelled() {
			in.LineCount++
		}
	}
	return in
}

// Validate implements entity.Validatable.
func (q *Quotation) Validate(ctx context.Context) error {
	if err := q.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(q.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if !q.Status.Valid() {
		return apperror.NewValidation("unknown quotation status").
			WithDetail("field", "status").
			WithDetail("value", string(q.Status))
	}

	if len(q.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i := range q.Lines {
		line := &q.Lines[i]
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
