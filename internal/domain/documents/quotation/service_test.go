package quotation

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
	"fabriq/internal/domain/documents/status"
)

// --- test doubles ---

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	docs  map[id.ID]*Quotation
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:  make(map[id.ID]*Quotation),
		lines: make(map[id.ID][]Line),
	}
}

func (r *memRepo) Create(ctx context.Context, doc *Quotation) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, docID id.ID) (*Quotation, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("quotation", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memRepo) GetByNumber(ctx context.Context, number string) (*Quotation, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("quotation", number)
}

func (r *memRepo) Update(ctx context.Context, doc *Quotation) error {
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

func (r *memRepo) SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("quotation", docID.String())
	}
	doc.DeletionMark = marked
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *memRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quotation], error) {
	out := domain.ListResult[*Quotation]{}
	for _, doc := range r.docs {
		out.Items = append(out.Items, doc)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
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

func testTenant(policy string, allowZero bool) *tenant.Tenant {
	return &tenant.Tenant{
		ID:             "t1",
		Slug:           "mill-one",
		Status:         tenant.StatusActive,
		DiscountPolicy: policy,
		AllowZeroTotal: allowZero,
	}
}

func testCtx(t *tenant.Tenant) context.Context {
	return tenant.WithTenant(context.Background(), t)
}

func newFixture() (*Service, *memRepo, *staticProducts) {
	repo := newMemRepo()
	products := &staticProducts{byID: make(map[id.ID]*product.Product)}
	svc := NewService(repo, products, &numerator.MockGenerator{}, passthroughTx{}, nil)
	return svc, repo, products
}

func draftQuotation(customerID id.ID) *Quotation {
	doc := NewQuotation("t1", customerID)
	// 10 rolls at 120.00, 10% discount, 5% tax: the canonical worked example
	line := NewLine(id.New(), types.NewQuantityFromInt(10), types.MustMoney("120.00"))
	pct := types.MustMoney("10")
	line.DiscountPct = &pct
	line.TaxPct = types.MustMoney("5")
	doc.AddLine(line)
	return doc
}

// --- tests ---

func TestCreate_PricesDocumentAndAllocatesNumber(t *testing.T) {
	tn := testTenant("", false)
	svc, repo, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	doc.AddLine(func() Line {
		l := NewLine(id.New(), types.NewQuantityFromInt(10), types.MustMoney("120.00"))
		pct := types.MustMoney("10")
		l.DiscountPct = &pct
		l.TaxPct = types.MustMoney("5")
		return l
	}())
	pct := types.MustMoney("5")
	doc.DocDiscountPct = &pct

	require.NoError(t, svc.Create(ctx, doc))

	assert.Equal(t, int64(1), doc.Sequence)
	assert.Equal(t, "QT-00001", doc.Number)

	// Each line: gross 1200.00, discount 120.00, tax 54.00, final 1134.00
	assert.Equal(t, "1134.00", doc.Lines[0].FinalPrice.StringFixed(2))
	assert.Equal(t, "2268.00", doc.Subtotal.StringFixed(2))
	assert.Equal(t, "113.40", doc.DocDiscountAmount.StringFixed(2))
	assert.Equal(t, "2154.60", doc.GrandTotal.StringFixed(2))

	stored, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, status.QuotationDraft, stored.Status)
}

func TestCreate_SequencePerTenantAndType(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	first := draftQuotation(id.New())
	second := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, first))
	require.NoError(t, svc.Create(ctx, second))

	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, int64(2), second.Sequence)
	assert.Equal(t, "QT-00002", second.Number)
}

func TestCreate_AppliesProductDefaults(t *testing.T) {
	tn := testTenant("", false)
	svc, _, products := newFixture()
	ctx := testCtx(tn)

	prod := product.NewProduct("t1", "PR-00001", "Cotton twill", product.UnitRoll)
	prod.UnitPrice = types.MustMoney("80.00")
	prod.TaxPct = types.MustMoney("5")
	products.byID[prod.ID] = prod

	doc := NewQuotation("t1", id.New())
	doc.AddLine(NewLine(prod.ID, types.NewQuantityFromInt(2), types.ZeroMoney()))

	require.NoError(t, svc.Create(ctx, doc))

	assert.Equal(t, "80.00", doc.Lines[0].UnitPrice.StringFixed(2))
	// 160.00 base + 5% tax
	assert.Equal(t, "168.00", doc.Lines[0].FinalPrice.StringFixed(2))
}

func TestCreate_PolicyViolation(t *testing.T) {
	tn := testTenant("doc_discount_pct <= 30.0", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	pct := types.MustMoney("45")
	doc.DocDiscountPct = &pct

	err := svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePolicyViolation))
}

func TestCreate_NegativeTotalRejectedUnlessAllowed(t *testing.T) {
	customerID := id.New()

	build := func() *Quotation {
		doc := NewQuotation("t1", customerID)
		doc.AddLine(NewLine(id.New(), types.NewQuantityFromInt(1), types.MustMoney("10.00")))
		doc.DocDiscountAmt = types.MustMoney("50.00")
		return doc
	}

	strict := testTenant("", false)
	svc, _, _ := newFixture()
	err := svc.Create(testCtx(strict), build())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeTotal))

	lenient := testTenant("", true)
	svc2, _, _ := newFixture()
	doc := build()
	require.NoError(t, svc2.Create(testCtx(lenient), doc))
	assert.True(t, doc.GrandTotal.IsZero())
}

func TestCreate_InvalidQuantity(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()

	doc := NewQuotation("t1", id.New())
	doc.AddLine(NewLine(id.New(), 0, types.MustMoney("10.00")))

	err := svc.Create(testCtx(tn), doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))
}

func TestUpdate_StaleVersion(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, doc))

	edit, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edit.Version = edit.Version + 7 // simulate a concurrent writer
	edit.Comment = "updated"

	err = svc.Update(ctx, edit)
	require.Error(t, err)
	assert.True(t, apperror.IsStaleVersion(err))
}

func TestUpdate_RepricesChangedLines(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, doc))

	edit, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edit.Lines[0].Quantity = types.NewQuantityFromInt(20)

	require.NoError(t, svc.Update(ctx, edit))

	// gross 2400.00, discount 240.00, tax 108.00
	assert.Equal(t, "2268.00", edit.Lines[0].FinalPrice.StringFixed(2))
	assert.Equal(t, "2268.00", edit.GrandTotal.StringFixed(2))
}

func TestUpdate_LockedLinePriceEditRejected(t *testing.T) {
	tn := testTenant("", false)
	svc, repo, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, doc))

	// Force the line out of OPEN directly in storage.
	lines := repo.lines[doc.ID]
	lines[0].Status = status.ItemInProduction
	repo.lines[doc.ID] = lines

	edit, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edit.Lines[0].UnitPrice = types.MustMoney("999.00")

	err = svc.Update(ctx, edit)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeItemLocked))
}

func TestUpdate_LockedLineNonPriceEditAllowed(t *testing.T) {
	tn := testTenant("", false)
	svc, repo, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, doc))
	locked := doc.Lines[0].FinalPrice

	lines := repo.lines[doc.ID]
	lines[0].Status = status.ItemInProduction
	repo.lines[doc.ID] = lines

	edit, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edit.Comment = "rush order"

	require.NoError(t, svc.Update(ctx, edit))
	assert.Equal(t, locked.StringFixed(2), edit.Lines[0].FinalPrice.StringFixed(2))
}

func TestUpdate_AcceptedCommentEditKeepsDiscount(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	pct := types.MustMoney("5")
	doc.DocDiscountPct = &pct
	require.NoError(t, svc.Create(ctx, doc))
	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationQuoted, 1))
	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationAccepted, 2))

	// A full-body edit echoes the stored discount back unchanged; only the
	// comment differs. That is not a pricing edit.
	edit, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edit.Comment = "confirmed by phone"
	require.NoError(t, svc.Update(ctx, edit))

	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed by phone", stored.Comment)
	require.NotNil(t, stored.DocDiscountPct)
	assert.Equal(t, "5", stored.DocDiscountPct.String())

	// Actually changing the percentage is still rejected.
	edit, err = svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	newPct := types.MustMoney("15")
	edit.DocDiscountPct = &newPct
	err = svc.Update(ctx, edit)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestTransitionStatus(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, doc))

	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationQuoted, 1))

	// Version bumped by the transition; a skipped-ahead move is rejected.
	err := svc.TransitionStatus(ctx, doc.ID, status.QuotationConverted, 2)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))

	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationAccepted, 2))
	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationConverted, 3))
}

func TestCancelLine_RecomputesTotals(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := NewQuotation("t1", id.New())
	doc.AddLine(NewLine(id.New(), types.NewQuantityFromInt(1), types.MustMoney("100.00")))
	doc.AddLine(NewLine(id.New(), types.NewQuantityFromInt(1), types.MustMoney("40.00")))
	require.NoError(t, svc.Create(ctx, doc))
	assert.Equal(t, "140.00", doc.GrandTotal.StringFixed(2))

	require.NoError(t, svc.CancelLine(ctx, doc.ID, doc.Lines[1].LineID, 1))

	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", stored.GrandTotal.StringFixed(2))
	assert.Equal(t, status.ItemCancelled, stored.Lines[1].Status)

	// Cancelled is terminal.
	err = svc.CancelLine(ctx, doc.ID, doc.Lines[1].LineID, 2)
	require.Error(t, err)
}

func TestProductionFlow(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, doc))
	lineID := doc.Lines[0].LineID

	// Draft documents cannot start production.
	err := svc.StartProduction(ctx, doc.ID, lineID, 1)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))

	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationQuoted, 1))
	require.NoError(t, svc.StartProduction(ctx, doc.ID, lineID, 2))

	// Partial production keeps the line in production.
	require.NoError(t, svc.RecordProduction(ctx, doc.ID, lineID, types.NewQuantityFromInt(4), 3))
	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, status.ItemInProduction, stored.Lines[0].Status)

	require.NoError(t, svc.RecordProduction(ctx, doc.ID, lineID, types.NewQuantityFromInt(6), 4))
	stored, err = svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, status.ItemProduced, stored.Lines[0].Status)

	require.NoError(t, svc.RecordDispatch(ctx, doc.ID, lineID, types.NewQuantityFromInt(10), 5))
	stored, err = svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, status.ItemDispatched, stored.Lines[0].Status)

	// Dispatch before production is rejected on another line state.
	err = svc.RecordDispatch(ctx, doc.ID, lineID, types.NewQuantityFromInt(1), 6)
	require.Error(t, err)
}

func TestRecordProduction_CannotExceedLineQuantity(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New()) // 10 rolls ordered
	require.NoError(t, svc.Create(ctx, doc))
	lineID := doc.Lines[0].LineID

	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationQuoted, 1))
	require.NoError(t, svc.StartProduction(ctx, doc.ID, lineID, 2))

	err := svc.RecordProduction(ctx, doc.ID, lineID, types.NewQuantityFromInt(100), 3)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))

	// The rejected call left the line untouched.
	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Lines[0].ProducedQty.IsZero())
	assert.Equal(t, status.ItemInProduction, stored.Lines[0].Status)
}

func TestRecordDispatch_CannotExceedProduced(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New()) // 10 rolls ordered
	require.NoError(t, svc.Create(ctx, doc))
	lineID := doc.Lines[0].LineID

	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationQuoted, 1))
	require.NoError(t, svc.StartProduction(ctx, doc.ID, lineID, 2))
	require.NoError(t, svc.RecordProduction(ctx, doc.ID, lineID, types.NewQuantityFromInt(10), 3))
	require.NoError(t, svc.RecordDispatch(ctx, doc.ID, lineID, types.NewQuantityFromInt(4), 4))

	err := svc.RecordDispatch(ctx, doc.ID, lineID, types.NewQuantityFromInt(7), 5)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))

	stored, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(4), stored.Lines[0].DispatchedQty)
}

func TestDelete_OnlyDraft(t *testing.T) {
	tn := testTenant("", false)
	svc, _, _ := newFixture()
	ctx := testCtx(tn)

	doc := draftQuotation(id.New())
	require.NoError(t, svc.Create(ctx, doc))
	require.NoError(t, svc.TransitionStatus(ctx, doc.ID, status.QuotationQuoted, 1))

	err := svc.Delete(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}
