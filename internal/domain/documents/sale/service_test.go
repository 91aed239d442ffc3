package sale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/core/numerator"
	"fabriq/internal/core/tenant"
	"fabriq/internal/core/types"
	"fabriq/internal/domain"
	"fabriq/internal/domain/catalogs/product"
	"fabriq/internal/domain/documents/quotation"
	"fabriq/internal/domain/documents/status"
)

// --- test doubles ---

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memSaleRepo struct {
	docs  map[id.ID]*SaleInvoice
	lines map[id.ID][]Line
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{
		docs:  make(map[id.ID]*SaleInvoice),
		lines: make(map[id.ID][]Line),
	}
}

func (r *memSaleRepo) Create(ctx context.Context, doc *SaleInvoice) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memSaleRepo) GetByID(ctx context.Context, docID id.ID) (*SaleInvoice, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale invoice", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memSaleRepo) GetByNumber(ctx context.Context, number string) (*SaleInvoice, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("sale invoice", number)
}

func (r *memSaleRepo) Update(ctx context.Context, doc *SaleInvoice) error {
	stored, ok := r.docs[doc.ID]
	if !ok {
		return apperror.NewNotFound("sale invoice", doc.ID.String())
	}
	if stored.Version != doc.Version {
		return apperror.NewStaleVersion("sale invoice", doc.ID.String())
	}
	doc.Version++
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memSaleRepo) SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("sale invoice", docID.String())
	}
	doc.DeletionMark = marked
	return nil
}

func (r *memSaleRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *memSaleRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *memSaleRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SaleInvoice], error) {
	out := domain.ListResult[*SaleInvoice]{}
	for _, doc := range r.docs {
		out.Items = append(out.Items, doc)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

type memQuoteRepo struct {
	docs  map[id.ID]*quotation.Quotation
	lines map[id.ID][]quotation.Line
}

func newMemQuoteRepo() *memQuoteRepo {
	return &memQuoteRepo{
		docs:  make(map[id.ID]*quotation.Quotation),
		lines: make(map[id.ID][]quotation.Line),
	}
}

func (r *memQuoteRepo) Create(ctx context.Context, doc *quotation.Quotation) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memQuoteRepo) GetByID(ctx context.Context, docID id.ID) (*quotation.Quotation, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("quotation", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memQuoteRepo) GetByNumber(ctx context.Context, number string) (*quotation.Quotation, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("quotation", number)
}

func (r *memQuoteRepo) Update(ctx context.Context, doc *quotation.Quotation) error {
	stored, ok := r.docs[doc.ID]
	if !ok {
		return apperror.NewNotFound("quotation", doc.ID.String())
	}
	if stored.Version != doc.Version {
		return apperror.NewStaleVersion("quotation", doc.ID.String())
	}
	doc.Version++
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memQuoteRepo) SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("quotation", docID.String())
	}
	doc.DeletionMark = marked
	return nil
}

func (r *memQuoteRepo) GetLines(ctx context.Context, docID id.ID) ([]quotation.Line, error) {
	return append([]quotation.Line(nil), r.lines[docID]...), nil
}

func (r *memQuoteRepo) SaveLines(ctx context.Context, docID id.ID, lines []quotation.Line) error {
	r.lines[docID] = append([]quotation.Line(nil), lines...)
	return nil
}

func (r *memQuoteRepo) List(ctx context.Context, filter quotation.ListFilter) (domain.ListResult[*quotation.Quotation], error) {
	return domain.ListResult[*quotation.Quotation]{}, nil
}

type staticProducts struct {
	byID map[id.ID]*product.Product
}

func (p *staticProducts) Resolve(ctx context.Context, productID id.ID) (*product.Product, error) {
	if prod, ok := p.byID[productID]; ok {
		return prod, nil
	}
	return nil, apperror.NewValidation("product does not exist").
		WithDetail("productId", productID.String())
}

// --- fixtures ---

type fixture struct {
	sales  *Service
	quotes *quotation.Service
	repo   *memSaleRepo
}

func newFixture() *fixture {
	gen := &numerator.MockGenerator{}
	txm := passthroughTx{}
	products := &staticProducts{byID: make(map[id.ID]*product.Product)}

	quotes := quotation.NewService(newMemQuoteRepo(), products, gen, txm, nil)
	sales := NewService(newMemSaleRepo(), quotes, products, gen, txm, nil)

	f := &fixture{sales: sales, quotes: quotes}
	f.repo = sales.repo.(*memSaleRepo)
	return f
}

func testCtx() context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:     "t1",
		Slug:   "mill-one",
		Status: tenant.StatusActive,
	})
}

// acceptedQuotation creates a quotation with two lines, one of them
// cancelled, and drives it to ACCEPTED.
func acceptedQuotation(t *testing.T, ctx context.Context, quotes *quotation.Service) *quotation.Quotation {
	t.Helper()

	doc := quotation.NewQuotation("t1", id.New())
	pct := types.MustMoney("10")

	keep := quotation.NewLine(id.New(), types.NewQuantityFromInt(10), types.MustMoney("120.00"))
	keep.DiscountPct = &pct
	keep.TaxPct = types.MustMoney("5")
	doc.AddLine(keep)

	dropped := quotation.NewLine(id.New(), types.NewQuantityFromInt(3), types.MustMoney("40.00"))
	doc.AddLine(dropped)

	require.NoError(t, quotes.Create(ctx, doc))
	require.NoError(t, quotes.CancelLine(ctx, doc.ID, doc.Lines[1].LineID, 1))
	require.NoError(t, quotes.TransitionStatus(ctx, doc.ID, status.QuotationQuoted, 2))
	require.NoError(t, quotes.TransitionStatus(ctx, doc.ID, status.QuotationAccepted, 3))

	accepted, err := quotes.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	return accepted
}

// --- tests ---

func TestConvertFromQuotation(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	q := acceptedQuotation(t, ctx, f.quotes)

	inv, err := f.sales.ConvertFromQuotation(ctx, q.ID)
	require.NoError(t, err)

	assert.Equal(t, "SI-00001", inv.Number)
	assert.Equal(t, int64(1), inv.Sequence)
	assert.Equal(t, status.SaleDraft, inv.Status)
	assert.Equal(t, q.CustomerID, inv.CustomerID)
	require.NotNil(t, inv.SourceQuotationID)
	assert.Equal(t, q.ID, *inv.SourceQuotationID)

	// Only the non-cancelled line is copied, with a source reference.
	require.Len(t, inv.Lines, 1)
	require.NotNil(t, inv.Lines[0].SourceLineID)
	assert.Equal(t, q.Lines[0].LineID, *inv.Lines[0].SourceLineID)
	assert.Equal(t, status.ItemOpen, inv.Lines[0].Status)

	// Pricing carries over: gross 1200, -10%, +5% tax.
	assert.Equal(t, "1134.00", inv.Lines[0].FinalPrice.StringFixed(2))
	assert.Equal(t, "1134.00", inv.GrandTotal.StringFixed(2))

	// The quotation is terminal now.
	converted, err := f.quotes.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, status.QuotationConverted, converted.Status)
}

func TestConvertFromQuotation_RequiresAccepted(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	doc := quotation.NewQuotation("t1", id.New())
	doc.AddLine(quotation.NewLine(id.New(), types.NewQuantityFromInt(1), types.MustMoney("10.00")))
	require.NoError(t, f.quotes.Create(ctx, doc))

	_, err := f.sales.ConvertFromQuotation(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestConvertFromQuotation_OnlyOnce(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	q := acceptedQuotation(t, ctx, f.quotes)

	_, err := f.sales.ConvertFromQuotation(ctx, q.ID)
	require.NoError(t, err)

	_, err = f.sales.ConvertFromQuotation(ctx, q.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestConvertedInvoiceEditsAreIndependent(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	q := acceptedQuotation(t, ctx, f.quotes)
	inv, err := f.sales.ConvertFromQuotation(ctx, q.ID)
	require.NoError(t, err)

	edit, err := f.sales.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = types.NewQuantityFromInt(5)
	require.NoError(t, f.sales.Update(ctx, edit))

	// gross 600, -60, base 540, tax 27
	assert.Equal(t, "567.00", edit.GrandTotal.StringFixed(2))

	// Source quotation totals are untouched.
	src, err := f.quotes.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "1134.00", src.GrandTotal.StringFixed(2))
}

func TestSaleLifecycle(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	doc := NewSaleInvoice("t1", id.New())
	doc.AddLine(NewLine(id.New(), types.NewQuantityFromInt(2), types.MustMoney("50.00")))
	require.NoError(t, f.sales.Create(ctx, doc))
	assert.Equal(t, "SI-00001", doc.Number)

	require.NoError(t, f.sales.TransitionStatus(ctx, doc.ID, status.SaleConfirmed, 1))

	// Confirmed invoices are price-frozen.
	edit, err := f.sales.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edit.Lines[0].UnitPrice = types.MustMoney("60.00")
	err = f.sales.Update(ctx, edit)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))

	// Production runs against the confirmed invoice.
	lineID := doc.Lines[0].LineID
	require.NoError(t, f.sales.StartProduction(ctx, doc.ID, lineID, 2))
	require.NoError(t, f.sales.RecordProduction(ctx, doc.ID, lineID, types.NewQuantityFromInt(2), 3))
	require.NoError(t, f.sales.RecordDispatch(ctx, doc.ID, lineID, types.NewQuantityFromInt(2), 4))

	stored, err := f.sales.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, status.ItemDispatched, stored.Lines[0].Status)

	require.NoError(t, f.sales.TransitionStatus(ctx, doc.ID, status.SaleClosed, 5))

	err = f.sales.TransitionStatus(ctx, doc.ID, status.SaleCancelled, 6)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestSaleUpdate_ConfirmedCommentEditKeepsDiscount(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	doc := NewSaleInvoice("t1", id.New())
	doc.AddLine(NewLine(id.New(), types.NewQuantityFromInt(2), types.MustMoney("50.00")))
	pct := types.MustMoney("5")
	doc.DocDiscountPct = &pct
	require.NoError(t, f.sales.Create(ctx, doc))
	require.NoError(t, f.sales.TransitionStatus(ctx, doc.ID, status.SaleConfirmed, 1))

	// A full-body edit echoes the stored discount back unchanged; only the
	// comment differs. That is not a pricing edit.
	edit, err := f.sales.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edit.Comment = "delivery slot agreed"
	require.NoError(t, f.sales.Update(ctx, edit))

	stored, err := f.sales.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivery slot agreed", stored.Comment)
	require.NotNil(t, stored.DocDiscountPct)
	assert.Equal(t, "5", stored.DocDiscountPct.String())

	// Actually changing the percentage is still rejected.
	edit, err = f.sales.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	newPct := types.MustMoney("15")
	edit.DocDiscountPct = &newPct
	err = f.sales.Update(ctx, edit)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestSaleDelete_OnlyDraft(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	doc := NewSaleInvoice("t1", id.New())
	doc.AddLine(NewLine(id.New(), types.NewQuantityFromInt(1), types.MustMoney("10.00")))
	require.NoError(t, f.sales.Create(ctx, doc))
	require.NoError(t, f.sales.TransitionStatus(ctx, doc.ID, status.SaleConfirmed, 1))

	err := f.sales.Delete(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}
