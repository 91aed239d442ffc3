package sale

import (
	"context"
	"time"

	"fabriq/internal/core/id"
	"fabriq/internal/domain"
	"fabriq/internal/domain/documents/status"
)

// Repository defines operations for sale invoice documents.
//
// Update is guarded by optimistic locking: the write matches on doc.Version,
// increments the stored version, and syncs the new version back onto the
// document. A mismatch yields apperror.CodeStaleVersion.
type Repository interface {
	Create(ctx context.Context, doc *SaleInvoice) error
	GetByID(ctx context.Context, docID id.ID) (*SaleInvoice, error)
	GetByNumber(ctx context.Context, number string) (*SaleInvoice, error)
	Update(ctx context.Context, doc *SaleInvoice) error
	SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SaleInvoice], error)
}

// ListFilter for filtering sale invoices.
type ListFilter struct {
	domain.ListFilter

	CustomerID        *id.ID
	Status            *status.SaleStatus
	SourceQuotationID *id.ID
	DateFrom          *time.Time
	DateTo            *time.Time
}
