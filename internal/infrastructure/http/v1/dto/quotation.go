package dto

import (
	"time"

	"fabriq/internal/core/id"
	"fabriq/internal/core/types"
	"fabriq/internal/domain/documents/quotation"
	"fabriq/internal/domain/documents/status"
)

// --- Request DTOs ---

// QuotationLineRequest is one line of a quotation create/update request.
// LineID is set on update to address an existing line; new lines omit it.
type QuotationLineRequest struct {
	LineID      *string        `json:"lineId"`
	ProductID   string         `json:"productId" binding:"required"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
	DiscountPct *types.Money   `json:"discountPct"`
	DiscountAmt types.Money    `json:"discountAmt"`
	TaxPct      types.Money    `json:"taxPct"`
}

func (r *QuotationLineRequest) toLine() (quotation.Line, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return quotation.Line{}, err
	}

	line := quotation.NewLine(productID, r.Quantity, r.UnitPrice)
	line.DiscountPct = r.DiscountPct
	line.DiscountAmt = r.DiscountAmt
	line.TaxPct = r.TaxPct

	if r.LineID != nil {
		lineID, err := id.Parse(*r.LineID)
		if err != nil {
			return quotation.Line{}, err
		}
		line.LineID = lineID
	}
	return line, nil
}

// applyInputsTo overwrites the pricing inputs of an existing line, keeping its
// status, fulfillment counters and stored breakdown.
func (r *QuotationLineRequest) applyInputsTo(line *quotation.Line) {
	line.Quantity = r.Quantity
	line.UnitPrice = r.UnitPrice
	line.DiscountPct = r.DiscountPct
	line.DiscountAmt = r.DiscountAmt
	line.TaxPct = r.TaxPct
}

// CreateQuotationRequest is the request body for creating a quotation.
type CreateQuotationRequest struct {
	CustomerID      string                 `json:"customerId" binding:"required"`
	Date            *time.Time             `json:"date"`
	ValidUntil      *time.Time             `json:"validUntil"`
	DocDiscountPct  *types.Money           `json:"docDiscountPct"`
	DocDiscountAmt  types.Money            `json:"docDiscountAmt"`
	PackagingCharge types.Money            `json:"packagingCharge"`
	Comment         string                 `json:"comment"`
	Lines           []QuotationLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateQuotationRequest) ToEntity(tenantID string) (*quotation.Quotation, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, err
	}

	doc := quotation.NewQuotation(tenantID, customerID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.ValidUntil = r.ValidUntil
	doc.DocDiscountPct = r.DocDiscountPct
	doc.DocDiscountAmt = r.DocDiscountAmt
	doc.PackagingCharge = r.PackagingCharge
	doc.Comment = r.Comment

	for i := range r.Lines {
		line, err := r.Lines[i].toLine()
		if err != nil {
			return nil, err
		}
		doc.AddLine(line)
	}
	return doc, nil
}

// UpdateQuotationRequest is the request body for updating a quotation.
// Version must carry the version the client loaded.
type UpdateQuotationRequest struct {
	CustomerID      string                 `json:"customerId" binding:"required"`
	Date            *time.Time             `json:"date"`
	ValidUntil      *time.Time             `json:"validUntil"`
	DocDiscountPct  *types.Money           `json:"docDiscountPct"`
	DocDiscountAmt  types.Money            `json:"docDiscountAmt"`
	PackagingCharge types.Money            `json:"packagingCharge"`
	Comment         string                 `json:"comment"`
	Lines           []QuotationLineRequest `json:"lines" binding:"required"`
	Version         int                    `json:"version" binding:"required"`
}

// ApplyTo applies the update onto the loaded document. Lines referenced by ID
// keep their status and fulfillment counters; the rest are created fresh.
func (r *UpdateQuotationRequest) ApplyTo(doc *quotation.Quotation) error {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return err
	}
	doc.CustomerID = customerID
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.ValidUntil = r.ValidUntil
	doc.DocDiscountPct = r.DocDiscountPct
	doc.DocDiscountAmt = r.DocDiscountAmt
	doc.PackagingCharge = r.PackagingCharge
	doc.Comment = r.Comment
	doc.Version = r.Version

	lines := make([]quotation.Line, 0, len(r.Lines))
	for i := range r.Lines {
		rl := &r.Lines[i]

		if rl.LineID != nil {
			lineID, err := id.Parse(*rl.LineID)
			if err != nil {
				return err
			}
			if existing := doc.FindLine(lineID); existing != nil {
				line := *existing
				rl.applyInputsTo(&line)
				line.LineNo = i + 1
				lines = append(lines, line)
				continue
			}
		}

		line, err := rl.toLine()
		if err != nil {
			return err
		}
		line.LineNo = i + 1
		lines = append(lines, line)
	}
	doc.Lines = lines

	return nil
}

// QuotationTransitionRequest moves a quotation to a new status.
type QuotationTransitionRequest struct {
	Status  status.QuotationStatus `json:"status" binding:"required"`
	Version int                    `json:"version" binding:"required"`
}

// LineQuantityRequest records produced or dispatched quantity on a line.
type LineQuantityRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
	Version  int            `json:"version" binding:"required"`
}

// LineActionRequest is the body for line operations without a quantity.
type LineActionRequest struct {
	Version int `json:"version" binding:"required"`
}

// --- Response DTOs ---

// QuotationLineResponse is one line of a quotation response.
type QuotationLineResponse struct {
	LineID         string            `json:"lineId"`
	LineNo         int               `json:"lineNo"`
	ProductID      string            `json:"productId"`
	Quantity       types.Quantity    `json:"quantity"`
	UnitPrice      types.Money       `json:"unitPrice"`
	DiscountPct    *types.Money      `json:"discountPct,omitempty"`
	DiscountAmt    types.Money       `json:"discountAmt"`
	TaxPct         types.Money       `json:"taxPct"`
	GrossAmount    types.Money       `json:"grossAmount"`
	DiscountAmount types.Money       `json:"discountAmount"`
	TaxAmount      types.Money       `json:"taxAmount"`
	FinalPrice     types.Money       `json:"finalPrice"`
	Status         status.ItemStatus `json:"status"`
	ProducedQty    types.Quantity    `json:"producedQty"`
	DispatchedQty  types.Quantity    `json:"dispatchedQty"`
}

func fromQuotationLine(l *quotation.Line) QuotationLineResponse {
	return QuotationLineResponse{
		LineID:         l.LineID.String(),
		LineNo:         l.LineNo,
		ProductID:      l.ProductID.String(),
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		DiscountPct:    l.DiscountPct,
		DiscountAmt:    l.DiscountAmt,
		TaxPct:         l.TaxPct,
		GrossAmount:    l.GrossAmount,
		DiscountAmount: l.DiscountAmount,
		TaxAmount:      l.TaxAmount,
		FinalPrice:     l.FinalPrice,
		Status:         l.Status,
		ProducedQty:    l.ProducedQty,
		DispatchedQty:  l.DispatchedQty,
	}
}

// QuotationResponse is the response body for a quotation.
type QuotationResponse struct {
	ID                string                  `json:"id"`
	Number            string                  `json:"number"`
	Sequence          int64                   `json:"sequence"`
	Date              time.Time               `json:"date"`
	CustomerID        string                  `json:"customerId"`
	Status            status.QuotationStatus  `json:"status"`
	ValidUntil        *time.Time              `json:"validUntil,omitempty"`
	DocDiscountPct    *types.Money            `json:"docDiscountPct,omitempty"`
	DocDiscountAmt    types.Money             `json:"docDiscountAmt"`
	PackagingCharge   types.Money             `json:"packagingCharge"`
	Subtotal          types.Money             `json:"subtotal"`
	TaxTotal          types.Money             `json:"taxTotal"`
	DocDiscountAmount types.Money             `json:"docDiscountAmount"`
	GrandTotal        types.Money             `json:"grandTotal"`
	Comment           string                  `json:"comment,omitempty"`
	DeletionMark      bool                    `json:"deletionMark"`
	Version           int                     `json:"version"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
	Lines             []QuotationLineResponse `json:"lines"`
}

// FromQuotation creates response DTO from domain entity.
func FromQuotation(doc *quotation.Quotation) *QuotationResponse {
	lines := make([]QuotationLineResponse, len(doc.Lines))
	for i := range doc.Lines {
		lines[i] = fromQuotationLine(&doc.Lines[i])
	}

	return &QuotationResponse{
		ID:                doc.ID.String(),
		Number:            doc.Number,
		Sequence:          doc.Sequence,
		Date:              doc.Date,
		CustomerID:        doc.CustomerID.String(),
		Status:            doc.Status,
		ValidUntil:        doc.ValidUntil,
		DocDiscountPct:    doc.DocDiscountPct,
		DocDiscountAmt:    doc.DocDiscountAmt,
		PackagingCharge:   doc.PackagingCharge,
		Subtotal:          doc.Subtotal,
		TaxTotal:          doc.TaxTotal,
		DocDiscountAmount: doc.DocDiscountAmount,
		GrandTotal:        doc.GrandTotal,
		Comment:           doc.Comment,
		DeletionMark:      doc.DeletionMark,
		Version:           doc.Version,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
		Lines:             lines,
	}
}
