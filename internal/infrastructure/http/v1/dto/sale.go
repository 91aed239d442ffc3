package dto

import (
	"time"

	"fabriq/internal/core/id"
	"fabriq/internal/core/types"
	"fabriq/internal/domain/documents/sale"
	"fabriq/internal/domain/documents/status"
)

// --- Request DTOs ---

// SaleLineRequest is one line of a sale invoice create/update request.
type SaleLineRequest struct {
	LineID      *string        `json:"lineId"`
	ProductID   string         `json:"productId" binding:"required"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
	DiscountPct *types.Money   `json:"discountPct"`
	DiscountAmt types.Money    `json:"discountAmt"`
	TaxPct      types.Money    `json:"taxPct"`
}

func (r *SaleLineRequest) toLine() (sale.Line, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return sale.Line{}, err
	}

	line := sale.NewLine(productID, r.Quantity, r.UnitPrice)
	line.DiscountPct = r.DiscountPct
	line.DiscountAmt = r.DiscountAmt
	line.TaxPct = r.TaxPct

	if r.LineID != nil {
		lineID, err := id.Parse(*r.LineID)
		if err != nil {
			return sale.Line{}, err
		}
		line.LineID = lineID
	}
	return line, nil
}

func (r *SaleLineRequest) applyInputsTo(line *sale.Line) {
	line.Quantity = r.Quantity
	line.UnitPrice = r.UnitPrice
	line.DiscountPct = r.DiscountPct
	line.DiscountAmt = r.DiscountAmt
	line.TaxPct = r.TaxPct
}

// CreateSaleInvoiceRequest is the request body for creating a sale invoice.
type CreateSaleInvoiceRequest struct {
	CustomerID      string            `json:"customerId" binding:"required"`
	Date            *time.Time        `json:"date"`
	DocDiscountPct  *types.Money      `json:"docDiscountPct"`
	DocDiscountAmt  types.Money       `json:"docDiscountAmt"`
	PackagingCharge types.Money       `json:"packagingCharge"`
	Comment         string            `json:"comment"`
	Lines           []SaleLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSaleInvoiceRequest) ToEntity(tenantID string) (*sale.SaleInvoice, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, err
	}

	doc := sale.NewSaleInvoice(tenantID, customerID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
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

// UpdateSaleInvoiceRequest is the request body for updating a sale invoice.
type UpdateSaleInvoiceRequest struct {
	CustomerID      string            `json:"customerId" binding:"required"`
	Date            *time.Time        `json:"date"`
	DocDiscountPct  *types.Money      `json:"docDiscountPct"`
	DocDiscountAmt  types.Money       `json:"docDiscountAmt"`
	PackagingCharge types.Money       `json:"packagingCharge"`
	Comment         string            `json:"comment"`
	Lines           []SaleLineRequest `json:"lines" binding:"required"`
	Version         int               `json:"version" binding:"required"`
}

// ApplyTo applies the update onto the loaded document. Lines referenced by ID
// keep their status, source reference and fulfillment counters.
func (r *UpdateSaleInvoiceRequest) ApplyTo(doc *sale.SaleInvoice) error {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return err
	}
	doc.CustomerID = customerID
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.DocDiscountPct = r.DocDiscountPct
	doc.DocDiscountAmt = r.DocDiscountAmt
	doc.PackagingCharge = r.PackagingCharge
	doc.Comment = r.Comment
	doc.Version = r.Version

	lines := make([]sale.Line, 0, len(r.Lines))
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

// SaleTransitionRequest moves a sale invoice to a new status.
type SaleTransitionRequest struct {
	Status  status.SaleStatus `json:"status" binding:"required"`
	Version int               `json:"version" binding:"required"`
}

// ConvertQuotationRequest creates a sale invoice from an accepted quotation.
type ConvertQuotationRequest struct {
	QuotationID string `json:"quotationId" binding:"required"`
}

// --- Response DTOs ---

// SaleLineResponse is one line of a sale invoice response.
type SaleLineResponse struct {
	LineID         string            `json:"lineId"`
	LineNo         int               `json:"lineNo"`
	ProductID      string            `json:"productId"`
	SourceLineID   *string           `json:"sourceLineId,omitempty"`
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

func fromSaleLine(l *sale.Line) SaleLineResponse {
	resp := SaleLineResponse{
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
	if l.SourceLineID != nil {
		s := l.SourceLineID.String()
		resp.SourceLineID = &s
	}
	return resp
}

// SaleInvoiceResponse is the response body for a sale invoice.
type SaleInvoiceResponse struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	Sequence          int64              `json:"sequence"`
	Date              time.Time          `json:"date"`
	CustomerID        string             `json:"customerId"`
	Status            status.SaleStatus  `json:"status"`
	SourceQuotationID *string            `json:"sourceQuotationId,omitempty"`
	DocDiscountPct    *types.Money       `json:"docDiscountPct,omitempty"`
	DocDiscountAmt    types.Money        `json:"docDiscountAmt"`
	PackagingCharge   types.Money        `json:"packagingCharge"`
	Subtotal          types.Money        `json:"subtotal"`
	TaxTotal          types.Money        `json:"taxTotal"`
	DocDiscountAmount types.Money        `json:"docDiscountAmount"`
	GrandTotal        types.Money        `json:"grandTotal"`
	Comment           string             `json:"comment,omitempty"`
	DeletionMark      bool               `json:"deletionMark"`
	Version           int                `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	Lines             []SaleLineResponse `json:"lines"`
}

// FromSaleInvoice creates response DTO from domain entity.
func FromSaleInvoice(doc *sale.SaleInvoice) *SaleInvoiceResponse {
	lines := make([]SaleLineResponse, len(doc.Lines))
	for i := range doc.Lines {
		lines[i] = fromSaleLine(&doc.Lines[i])
	}

	resp := &SaleInvoiceResponse{
		ID:                doc.ID.String(),
		Number:            doc.Number,
		Sequence:          doc.Sequence,
		Date:              doc.Date,
		CustomerID:        doc.CustomerID.String(),
		Status:            doc.Status,
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
	if doc.SourceQuotationID != nil {
		s := doc.SourceQuotationID.String()
		resp.SourceQuotationID = &s
	}
	return resp
}
