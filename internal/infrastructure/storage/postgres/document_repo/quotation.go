package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabriq/internal/core/id"
	"fabriq/internal/domain"
	"fabriq/internal/domain/documents/quotation"
	"fabriq/internal/infrastructure/storage/postgres"
)

const (
	quotationTable      = "doc_quotations"
	quotationLinesTable = "doc_quotation_lines"
)

var quotationLineCols = []string{
	"tenant_id", "document_id",
	"line_id", "line_no", "product_id",
	"quantity", "unit_price", "discount_pct", "discount_amt", "tax_pct",
	"gross_amount", "discount_amount", "tax_amount", "final_price",
	"status", "produced_qty", "dispatched_qty",
}

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct {
	*BaseDocumentRepo[*quotation.Quotation]
	batch *postgres.BatchInserter
}

// NewQuotationRepo creates a new quotation repository.
func NewQuotationRepo(txManager *postgres.TxManager) *QuotationRepo {
	return &QuotationRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			quotationTable,
			"quotation",
			postgres.ExtractDBColumns[quotation.Quotation](),
			func() *quotation.Quotation { return &quotation.Quotation{} },
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// GetLines retrieves the table part ordered by line number.
func (r *QuotationRepo) GetLines(ctx context.Context, docID id.ID) ([]quotation.Line, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[quotation.Line]()...).
		From(quotationLinesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []quotation.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines rewrites the table part. Must run inside the document's
// transaction; COPY is used because quotations can carry hundreds of lines.
func (r *QuotationRepo) SaveLines(ctx context.Context, docID id.ID, lines []quotation.Line) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	del := r.Builder().
		Delete(quotationLinesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"document_id": docID})

	sql, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		rows = append(rows, []any{
			tenantID, docID,
			l.LineID, l.LineNo, l.ProductID,
			l.Quantity, l.UnitPrice, l.DiscountPct, l.DiscountAmt, l.TaxPct,
			l.GrossAmount, l.DiscountAmount, l.TaxAmount, l.FinalPrice,
			l.Status, l.ProducedQty, l.DispatchedQty,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, quotationLinesTable, quotationLineCols, rows); err != nil {
		return postgres.MapError(fmt.Errorf("copy lines: %w", err), quotationLinesTable)
	}
	return nil
}

// List retrieves quotations with document-specific filtering.
func (r *QuotationRepo) List(ctx context.Context, filter quotation.ListFilter) (domain.ListResult[*quotation.Quotation], error) {
	return r.list(ctx, filter.ListFilter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.CustomerID != nil {
			q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
		}
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.DateFrom != nil {
			q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
		}
		if filter.DateTo != nil {
			q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
		}
		return q
	})
}
