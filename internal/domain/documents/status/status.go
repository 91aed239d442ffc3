// Package status defines the closed status enumerations for documents and
// line items, with explicit transition tables. Statuses only ever move
// forward along their graph; anything else is an InvalidTransition.
package status

import (
	"fabriq/internal/core/apperror"
)

// DocType identifies a numbered document series. Each (tenant, DocType)
// pair owns an independent sequence counter.
type DocType string

const (
	DocTypeQuotation   DocType = "quotation"
	DocTypeSaleInvoice DocType = "sale_invoice"
)

// Valid reports whether the document type is known.
func (t DocType) Valid() bool {
	return t == DocTypeQuotation || t == DocTypeSaleInvoice
}

// --- Quotation status ---

// QuotationStatus is the document status of a quotation.
//
// DRAFT → QUOTED → {ACCEPTED, REJECTED, EXPIRED}; ACCEPTED → CONVERTED.
// REJECTED, EXPIRED and CONVERTED are terminal.
type QuotationStatus string

const (
	QuotationDraft     QuotationStatus = "DRAFT"
	QuotationQuoted    QuotationStatus = "QUOTED"
	QuotationAccepted  QuotationStatus = "ACCEPTED"
	QuotationRejected  QuotationStatus = "REJECTED"
	QuotationExpired   QuotationStatus = "EXPIRED"
	QuotationConverted QuotationStatus = "CONVERTED"
)

var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationDraft:    {QuotationQuoted},
	QuotationQuoted:   {QuotationAccepted, QuotationRejected, QuotationExpired},
	QuotationAccepted: {QuotationConverted},
	// REJECTED, EXPIRED, CONVERTED: no outgoing edges
}

// Valid reports whether the status value is a member of the enumeration.
func (s QuotationStatus) Valid() bool {
	switch s {
	case QuotationDraft, QuotationQuoted, QuotationAccepted,
		QuotationRejected, QuotationExpired, QuotationConverted:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is directly reachable from s.
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	for _, next := range quotationTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition validates the move to target.
func (s QuotationStatus) Transition(target QuotationStatus) error {
	if !target.Valid() {
		return apperror.NewValidation("unknown quotation status").
			WithDetail("status", string(target))
	}
	if !s.CanTransitionTo(target) {
		return apperror.NewInvalidTransition(string(s), string(target))
	}
	return nil
}

// IsTerminal reports whether no further transitions exist.
func (s QuotationStatus) IsTerminal() bool {
	return len(quotationTransitions[s]) == 0
}

// AllowsItemEdits reports whether lines may be added, repriced or cancelled.
func (s QuotationStatus) AllowsItemEdits() bool {
	return s == QuotationDraft || s == QuotationQuoted
}

// AllowsProductionStart reports whether line items may enter IN_PRODUCTION.
func (s QuotationStatus) AllowsProductionStart() bool {
	return s == QuotationQuoted || s == QuotationAccepted
}

// --- Sale status ---

// SaleStatus is the document status of a sale invoice.
//
// DRAFT → CONFIRMED → CLOSED; DRAFT → CANCELLED.
type SaleStatus string

const (
	SaleDraft     SaleStatus = "DRAFT"
	SaleConfirmed SaleStatus = "CONFIRMED"
	SaleClosed    SaleStatus = "CLOSED"
	SaleCancelled SaleStatus = "CANCELLED"
)

var saleTransitions = map[SaleStatus][]SaleStatus{
	SaleDraft:     {SaleConfirmed, SaleCancelled},
	SaleConfirmed: {SaleClosed},
}

// Valid reports whether the status value is a member of the enumeration.
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleDraft, SaleConfirmed, SaleClosed, SaleCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is directly reachable from s.
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	for _, next := range saleTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition validates the move to target.
func (s SaleStatus) Transition(target SaleStatus) error {
	if !target.Valid() {
		return apperror.NewValidation("unknown sale status").
			WithDetail("status", string(target))
	}
	if !s.CanTransitionTo(target) {
		return apperror.NewInvalidTransition(string(s), string(target))
	}
	return nil
}

// IsTerminal reports whether no further transitions exist.
func (s SaleStatus) IsTerminal() bool {
	return len(saleTransitions[s]) == 0
}

// AllowsItemEdits reports whether lines may be added, repriced or cancelled.
func (s SaleStatus) AllowsItemEdits() bool {
	return s == SaleDraft
}

// AllowsProductionStart reports whether line items may enter IN_PRODUCTION.
func (s SaleStatus) AllowsProductionStart() bool {
	return s == SaleConfirmed
}

// --- Line item status ---

// ItemStatus is the lifecycle status of one line item.
//
// OPEN → IN_PRODUCTION → PRODUCED → DISPATCHED, with a side branch
// OPEN → CANCELLED. Price fields are mutable only while OPEN.
type ItemStatus string

const (
	ItemOpen         ItemStatus = "OPEN"
	ItemInProduction ItemStatus = "IN_PRODUCTION"
	ItemProduced     ItemStatus = "PRODUCED"
	ItemDispatched   ItemStatus = "DISPATCHED"
	ItemCancelled    ItemStatus = "CANCELLED"
)

var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemOpen:         {ItemInProduction, ItemCancelled},
	ItemInProduction: {ItemProduced},
	ItemProduced:     {ItemDispatched},
	// DISPATCHED, CANCELLED: no outgoing edges
}

// Valid reports whether the status value is a member of the enumeration.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemOpen, ItemInProduction, ItemProduced, ItemDispatched, ItemCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is directly reachable from s.
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	for _, next := range itemTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition validates the move to target.
func (s ItemStatus) Transition(target ItemStatus) error {
	if !target.Valid() {
		return apperror.NewValidation("unknown item status").
			WithDetail("status", string(target))
	}
	if !s.CanTransitionTo(target) {
		return apperror.NewInvalidTransition(string(s), string(target))
	}
	return nil
}

// IsOpen reports whether price fields are still mutable.
func (s ItemStatus) IsOpen() bool {
	return s == ItemOpen
}

// IsCancelled reports whether the line is excluded from document totals.
func (s ItemStatus) IsCancelled() bool {
	return s == ItemCancelled
}

// IsTerminal reports whether no further transitions exist.
func (s ItemStatus) IsTerminal() bool {
	return len(itemTransitions[s]) == 0
}
