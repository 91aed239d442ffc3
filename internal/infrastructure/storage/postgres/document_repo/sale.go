package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabriq/internal/core/id"
	"fabriq/internal/domain"
	"fabriq/internal/domain/documents/sale"
	"fabriq/internal/infrastructure/storage/postgres"
)

const (
	saleTable      = "doc_sale_invoices"
	saleLinesTable = "doc_sale_invoice_lines"
)

var saleLineCols = []string{
	"tenant_id", "document_id",
	"line_id", "line_no", "product_id", "source_line_id",
	"quantity", "unit_price", "discount_pct", "discount_amt", "tax_pct",
	"gross_amount", "discount_amount", "tax_amount", "final_price",
	"status", "produced_qty", "dispatched_qty",
}

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.SaleInvoice]
	batch *postgres.BatchInserter
}

// NewSaleRepo creates a new sale invoice repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			saleTable,
			"sale_invoice",
			postgres.ExtractDBColumns[sale.SaleInvoice](),
			func() *sale.SaleInvoice { return &sale.SaleInvoice{} },
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// GetLines retrieves the table part ordered by line number.
func (r *SaleRepo) GetLines(ctx context.Context, docID id.ID) ([]sale.Line, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[sale.Line]()...).
		From(saleLinesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sale.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines rewrites the table part. Must run inside the document's transaction.
func (r *SaleRepo) SaveLines(ctx context.Context, docID id.ID, lines []sale.Line) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	del := r.Builder().
		Delete(saleLinesTable).
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
			l.LineID, l.LineNo, l.ProductID, l.SourceLineID,
			l.Quantity, l.UnitPrice, l.DiscountPct, l.DiscountAmt, l.TaxPct,
			l.GrossAmount, l.DiscountAmount, l.TaxAmount, l.FinalPrice,
			l.Status, l.ProducedQty, l.DispatchedQty,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, saleLinesTable, saleLineCols, rows); err != nil {
		return postgres.MapError(fmt.Errorf("copy lines: %w", err), saleLinesTable)
	}
	return nil
}

// List retrieves sale invoices with document-specific filtering.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.SaleInvoice], error) {
	return r.list(ctx, filter.ListFilter, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.CustomerID != nil {
			q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
		}
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.SourceQuotationID != nil {
			q = q.Where(squirrel.Eq{"source_quotation_id": *filter.SourceQuotationID})
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
