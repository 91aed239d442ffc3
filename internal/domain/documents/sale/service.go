package sale

import (
	"context"
	"fmt"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/core/numerator"
	"fabriq/internal/core/tenant"
	"fabriq/internal/core/tx"
	"fabriq/internal/core/types"
	"fabriq/internal/domain"
	"fabriq/internal/domain/documents/quotation"
	"fabriq/internal/domain/documents/status"
	"fabriq/internal/domain/pricing"
	"fabriq/pkg/logger"
)

// numberConfig defines the display format for sale invoice numbers.
// Invoices use their own series, independent of quotations.
var numberConfig = numerator.DefaultConfig("SI")

// Service provides business operations for sale invoice documents.
type Service struct {
	repo       Repository
	quotations *quotation.Service
	products   quotation.ProductResolver
	generator  numerator.Generator
	txManager  tx.Manager
	policies   *pricing.PolicyCache
}

// NewService creates a new sale invoice service.
func NewService(
	repo Repository,
	quotations *quotation.Service,
	products quotation.ProductResolver,
	generator numerator.Generator,
	txManager tx.Manager,
	policies *pricing.PolicyCache,
) *Service {
	if policies == nil {
		policies = pricing.NewPolicyCache()
	}
	return &Service{
		repo:       repo,
		quotations: quotations,
		products:   products,
		generator:  generator,
		txManager:  txManager,
		policies:   policies,
	}
}

func (s *Service) applyProductDefaults(ctx context.Context, doc *SaleInvoice) error {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if !line.Status.IsOpen() || !line.UnitPrice.IsZero() {
			continue
		}

		p, err := s.products.Resolve(ctx, line.ProductID)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("lineNo", line.LineNo)
			}
			return err
		}
		line.UnitPrice = p.UnitPrice
		if line.TaxPct.IsZero() {
			line.TaxPct = p.TaxPct
		}
	}
	return nil
}

func (s *Service) priceAndCheck(ctx context.Context, doc *SaleInvoice) error {
	t, err := tenant.RequireTenant(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	if err := doc.Reprice(pricing.AggregateOptions{AllowZeroTotal: t.AllowZeroTotal}); err != nil {
		return err
	}

	policy, err := s.policies.Get(t.DiscountPolicy)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("tenant", t.ID)
	}
	return policy.Check(doc.PolicyInput())
}

// Create validates, prices and persists a new sale invoice. The sequence
// number is allocated inside the same transaction as the insert.
func (s *Service) Create(ctx context.Context, doc *SaleInvoice) error {
	t, err := tenant.RequireTenant(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if doc.TenantID == "" {
		doc.TenantID = t.ID
	}
	if doc.Status == "" {
		doc.Status = status.SaleDraft
	}
	for i := range doc.Lines {
		if doc.Lines[i].LineNo == 0 {
			doc.Lines[i].LineNo = i + 1
		}
	}

	if err := s.applyProductDefaults(ctx, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := s.priceAndCheck(ctx, doc); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if !doc.IsNumbered() {
			seq, err := s.generator.Next(ctx, doc.TenantID, string(status.DocTypeSaleInvoice))
			if err != nil {
				return fmt.Errorf("allocate number: %w", err)
			}
			doc.Sequence = seq
			doc.Number = numberConfig.Format(seq)
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale invoice created",
		"id", doc.ID, "number", doc.Number, "grandTotal", doc.GrandTotal)
	return nil
}

// ConvertFromQuotation creates a sale invoice from an accepted quotation.
//
// Non-cancelled lines are copied with their priced breakdown and a back
// reference to the source line; the copies start OPEN and are edited
// independently afterwards. The quotation is marked CONVERTED, the invoice
// gets a number from its own series, and the whole conversion is one
// transaction.
func (s *Service) ConvertFromQuotation(ctx context.Context, quotationID id.ID) (*SaleInvoice, error) {
	t, err := tenant.RequireTenant(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	q, err := s.quotations.GetByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if q.Status != status.QuotationAccepted {
		return nil, apperror.NewInvalidTransition(string(q.Status), string(status.QuotationConverted)).
			WithDetail("quotationId", quotationID.String())
	}

	doc := NewSaleInvoice(t.ID, q.CustomerID)
	doc.SourceQuotationID = &q.ID
	doc.DocDiscountPct = q.DocDiscountPct
	doc.DocDiscountAmt = q.DocDiscountAmt
	doc.PackagingCharge = q.PackagingCharge
	doc.Comment = q.Comment

	for i := range q.Lines {
		src := q.Lines[i]
		if src.Status.IsCancelled() {
			continue
		}
		line := NewLine(src.ProductID, src.Quantity, src.UnitPrice)
		line.SourceLineID = &src.LineID
		line.DiscountPct = src.DiscountPct
		line.DiscountAmt = src.DiscountAmt
		line.TaxPct = src.TaxPct
		doc.AddLine(line)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.priceAndCheck(ctx, doc); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		seq, err := s.generator.Next(ctx, doc.TenantID, string(status.DocTypeSaleInvoice))
		if err != nil {
			return fmt.Errorf("allocate number: %w", err)
		}
		doc.Sequence = seq
		doc.Number = numberConfig.Format(seq)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		if err := s.quotations.MarkConverted(ctx, q); err != nil {
			return fmt.Errorf("mark quotation converted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quotation converted to sale invoice",
		"quotationId", q.ID, "quotationNumber", q.Number,
		"invoiceId", doc.ID, "invoiceNumber", doc.Number)
	return doc, nil
}

// GetByID retrieves a sale invoice with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*SaleInvoice, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

func guardLineEdits(stored *SaleInvoice, incoming *SaleInvoice) error {
	byID := make(map[id.ID]*Line, len(stored.Lines))
	for i := range stored.Lines {
		byID[stored.Lines[i].LineID] = &stored.Lines[i]
	}

	seen := make(map[id.ID]bool, len(incoming.Lines))
	for i := range incoming.Lines {
		line := &incoming.Lines[i]

		prev, exists := byID[line.LineID]
		if !exists {
			if !stored.Status.AllowsItemEdits() {
				return apperror.NewInvalidTransition(string(stored.Status), "line added")
			}
			continue
		}
		seen[line.LineID] = true

		if line.Status != prev.Status {
			return apperror.NewValidation("line status cannot be changed via update").
				WithDetail("lineId", line.LineID.String())
		}

		if !line.PriceFieldsEqual(prev) {
			if !prev.Status.IsOpen() {
				return apperror.NewItemLocked(line.LineID.String(), string(prev.Status))
			}
			if !stored.Status.AllowsItemEdits() {
				return apperror.NewInvalidTransition(string(stored.Status), "pricing edit")
			}
		}
	}

	for lineID, prev := range byID {
		if seen[lineID] {
			continue
		}
		if !prev.Status.IsOpen() {
			return apperror.NewItemLocked(lineID.String(), string(prev.Status))
		}
		if !stored.Status.AllowsItemEdits() {
			return apperror.NewInvalidTransition(string(stored.Status), "line removed")
		}
	}

	return nil
}

// Update saves header and line edits. doc.Version must carry the version the
// caller loaded; a concurrent modification yields CodeStaleVersion.
func (s *Service) Update(ctx context.Context, doc *SaleInvoice) error {
	stored, err := s.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}

	if doc.Status != stored.Status {
		return apperror.NewValidation("status cannot be changed via update").
			WithDetail("field", "status")
	}
	if !stored.Status.AllowsItemEdits() {
		// Header pricing fields are frozen together with the lines. Echoing
		// the stored values back is fine; only a change is rejected.
		if !doc.HeaderPricingEqual(stored) {
			return apperror.NewInvalidTransition(string(stored.Status), "pricing edit")
		}
	}
	if err := guardLineEdits(stored, doc); err != nil {
		return err
	}

	for i := range doc.Lines {
		if doc.Lines[i].LineNo == 0 {
			doc.Lines[i].LineNo = i + 1
		}
	}

	if err := s.applyProductDefaults(ctx, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := s.priceAndCheck(ctx, doc); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// TransitionStatus moves the document along its status graph.
func (s *Service) TransitionStatus(ctx context.Context, docID id.ID, target status.SaleStatus, expectedVersion int) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	doc.Version = expectedVersion

	if err := doc.Status.Transition(target); err != nil {
		return err
	}
	doc.Status = target

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale invoice status changed",
		"id", doc.ID, "number", doc.Number, "status", target)
	return nil
}

// CancelLine cancels one line and recomputes document totals without it.
func (s *Service) CancelLine(ctx context.Context, docID, lineID id.ID, expectedVersion int) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	doc.Version = expectedVersion

	if !doc.Status.AllowsItemEdits() {
		return apperror.NewInvalidTransition(string(doc.Status), "line cancel")
	}

	line := doc.FindLine(lineID)
	if line == nil {
		return apperror.NewNotFound("sale invoice line", lineID.String())
	}
	if err := line.Status.Transition(status.ItemCancelled); err != nil {
		return err
	}
	line.Status = status.ItemCancelled

	if err := s.priceAndCheck(ctx, doc); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
}

// StartProduction moves a line to IN_PRODUCTION. Requires a confirmed invoice.
func (s *Service) StartProduction(ctx context.Context, docID, lineID id.ID, expectedVersion int) error {
	return s.updateLine(ctx, docID, lineID, expectedVersion, func(doc *SaleInvoice, line *Line) error {
		if !doc.Status.AllowsProductionStart() {
			return apperror.NewInvalidTransition(string(doc.Status), "production start")
		}
		if err := line.Status.Transition(status.ItemInProduction); err != nil {
			return err
		}
		line.Status = status.ItemInProduction
		return nil
	})
}

// RecordProduction adds produced quantity to a line in production.
func (s *Service) RecordProduction(ctx context.Context, docID, lineID id.ID, qty types.Quantity, expectedVersion int) error {
	if !qty.IsPositive() {
		return apperror.NewInvalidQuantity(qty.String())
	}
	return s.updateLine(ctx, docID, lineID, expectedVersion, func(doc *SaleInvoice, line *Line) error {
		if line.Status != status.ItemInProduction {
			return apperror.NewInvalidTransition(string(line.Status), string(status.ItemProduced))
		}
		if line.ProducedQty.Add(qty) > line.Quantity {
			return apperror.NewQuantityExceeded(qty.String(), line.Quantity.Sub(line.ProducedQty).String())
		}
		line.ProducedQty = line.ProducedQty.Add(qty)
		if line.ProducedQty >= line.Quantity {
			line.Status = status.ItemProduced
		}
		return nil
	})
}

// RecordDispatch adds dispatched quantity to a produced line.
func (s *Service) RecordDispatch(ctx context.Context, docID, lineID id.ID, qty types.Quantity, expectedVersion int) error {
	if !qty.IsPositive() {
		return apperror.NewInvalidQuantity(qty.String())
	}
	return s.updateLine(ctx, docID, lineID, expectedVersion, func(doc *SaleInvoice, line *Line) error {
		if line.Status != status.ItemProduced {
			return apperror.NewInvalidTransition(string(line.Status), string(status.ItemDispatched))
		}
		// Nothing leaves the warehouse that was never produced.
		if line.DispatchedQty.Add(qty) > line.ProducedQty {
			return apperror.NewQuantityExceeded(qty.String(), line.ProducedQty.Sub(line.DispatchedQty).String())
		}
		line.DispatchedQty = line.DispatchedQty.Add(qty)
		if line.DispatchedQty >= line.Quantity {
			line.Status = status.ItemDispatched
		}
		return nil
	})
}

func (s *Service) updateLine(ctx context.Context, docID, lineID id.ID, expectedVersion int, mutate func(*SaleInvoice, *Line) error) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	doc.Version = expectedVersion

	line := doc.FindLine(lineID)
	if line == nil {
		return apperror.NewNotFound("sale invoice line", lineID.String())
	}
	if err := mutate(doc, line); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
}

// Delete soft-deletes a draft sale invoice.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.Status != status.SaleDraft {
		return apperror.NewConflict("only draft sale invoices can be deleted").
			WithDetail("status", string(doc.Status))
	}
	return s.repo.SetDeletionMark(ctx, docID, true)
}

// List retrieves sale invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SaleInvoice], error) {
	return s.repo.List(ctx, filter)
}
