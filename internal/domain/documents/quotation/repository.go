package quotation

import (
	"context"
	"time"

	"fabriq/internal/core/id"
	"fabriq/internal/domain"
	"fabriq/internal/domain/documents/status"
)

// Repository defines operations for quotation documents.
//
// Update is guarded by optimistic locking: the write matches on doc.Version,
// increments the stored version, and syncs the new version back onto the
// document. A mismatch yields apperror.CodeStaleVersion.
type Repository interface {
	Create(ctx context.Context, doc *Quotation) error
	GetByID(ctx context.Context, docID id.ID) (*Quotation, error)
	GetByNumber(ctx context.Context, number string) (*Quotation, error)
	Update(ctx context.Context, doc *Quotation) error
	SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quotation], error)
}

// ListFilter for filtering quotations.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *status.QuotationStatus
	DateFrom   *time.Time
	DateTo     *time.Time
}
