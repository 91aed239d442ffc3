package quotation

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
	"fabriq/internal/domain/catalogs/product"
	"fabriq/internal/domain/documents/status"
	"fabriq/internal/domain/pricing"
	"fabriq/pkg/logger"
)

// numberConfig defines the display format for quotation numbers.
var numberConfig = numerator.DefaultConfig("QT")

// ProductResolver supplies product defaults for document lines.
type ProductResolver interface {
	Resolve(ctx context.Context, productID id.ID) (*product.Product, error)
}

// Service provides business operations for quotation documents.
type Service struct {
	repo      Repository
	products  ProductResolver
	generator numerator.Generator
	txManager tx.Manager
	policies  *pricing.PolicyCache
}

// NewService creates a new quotation service.
func NewService(
	repo Repository,
	products ProductResolver,
	generator numerator.Generator,
	txManager tx.Manager,
	policies *pricing.PolicyCache,
) *Service {
	if policies == nil {
		policies = pricing.NewPolicyCache()
	}
	return &Service{
		repo:      repo,
		products:  products,
		generator: generator,
		txManager: txManager,
		policies:  policies,
	}
}

// applyProductDefaults fills unit price and tax from the product catalog for
// lines that omit them. A zero unit price on an open line means "use the
// catalog price"; an explicit price always wins, and a zero tax percentage
// alongside an explicit price means tax-exempt, not "look it up".
func (s *Service) applyProductDefaults(ctx context.Context, doc *Quotation) error {
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

// priceAndCheck runs the full pricing cascade and the tenant policy.
func (s *Service) priceAndCheck(ctx context.Context, doc *Quotation) error {
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

// Create validates, prices and persists a new quotation. The sequence number
// is allocated inside the same transaction as the insert, so a failed create
// never burns a number.
func (s *Service) Create(ctx context.Context, doc *Quotation) error {
	t, err := tenant.RequireTenant(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if doc.TenantID == "" {
		doc.TenantID = t.ID
	}
	if doc.Status == "" {
		doc.Status = status.QuotationDraft
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
			seq, err := s.generator.Next(ctx, doc.TenantID, string(status.DocTypeQuotation))
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

	logger.Info(ctx, "quotation created",
		"id", doc.ID, "number", doc.Number, "grandTotal", doc.GrandTotal)
	return nil
}

// GetByID retrieves a quotation with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Quotation, error) {
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

// guardLineEdits enforces the line locking rules against the stored state:
// price fields of non-open lines are immutable, locked lines cannot be
// dropped, and new lines are only allowed while the document accepts edits.
func guardLineEdits(stored *Quotation, incoming *Quotation) error {
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

		// Status changes go through dedicated operations, not Update.
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
func (s *Service) Update(ctx context.Context, doc *Quotation) error {
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
func (s *Service) TransitionStatus(ctx context.Context, docID id.ID, target status.QuotationStatus, expectedVersion int) error {
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

	logger.Info(ctx, "quotation status changed",
		"id", doc.ID, "number", doc.Number, "status", target)
	return nil
}

// MarkConverted flips an accepted quotation to CONVERTED. Called by the sale
// service inside the conversion transaction.
func (s *Service) MarkConverted(ctx context.Context, doc *Quotation) error {
	if err := doc.Status.Transition(status.QuotationConverted); err != nil {
		return err
	}
	doc.Status = status.QuotationConverted
	doc.Touch()
	return s.repo.Update(ctx, doc)
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
		return apperror.NewNotFound("quotation line", lineID.String())
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

// StartProduction moves a line to IN_PRODUCTION. Only allowed once the
// document has been quoted.
func (s *Service) StartProduction(ctx context.Context, docID, lineID id.ID, expectedVersion int) error {
	return s.updateLine(ctx, docID, lineID, expectedVersion, func(doc *Quotation, line *Line) error {
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

// RecordProduction adds produced quantity to a line in production. The line
// moves to PRODUCED once the full quantity is covered.
func (s *Service) RecordProduction(ctx context.Context, docID, lineID id.ID, qty types.Quantity, expectedVersion int) error {
	if !qty.IsPositive() {
		return apperror.NewInvalidQuantity(qty.String())
	}
	return s.updateLine(ctx, docID, lineID, expectedVersion, func(doc *Quotation, line *Line) error {
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

// RecordDispatch adds dispatched quantity to a produced line. The line moves
// to DISPATCHED once the full quantity has left the warehouse.
func (s *Service) RecordDispatch(ctx context.Context, docID, lineID id.ID, qty types.Quantity, expectedVersion int) error {
	if !qty.IsPositive() {
		return apperror.NewInvalidQuantity(qty.String())
	}
	return s.updateLine(ctx, docID, lineID, expectedVersion, func(doc *Quotation, line *Line) error {
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

func (s *Service) updateLine(ctx context.Context, docID, lineID id.ID, expectedVersion int, mutate func(*Quotation, *Line) error) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	doc.Version = expectedVersion

	line := doc.FindLine(lineID)
	if line == nil {
		return apperror.NewNotFound("quotation line", lineID.String())
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

// Delete soft-deletes a draft quotation. Numbered history is preserved;
// documents past DRAFT are closed through status transitions instead.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.Status != status.QuotationDraft {
		return apperror.NewConflict("only draft quotations can be deleted").
			WithDetail("status", string(doc.Status))
	}
	return s.repo.SetDeletionMark(ctx, docID, true)
}

// List retrieves quotations with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quotation], error) {
	return s.repo.List(ctx, filter)
}
