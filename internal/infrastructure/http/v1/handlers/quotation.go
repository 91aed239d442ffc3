package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/core/types"
	"fabriq/internal/domain"
	"fabriq/internal/domain/documents/quotation"
	"fabriq/internal/domain/documents/status"
	"fabriq/internal/infrastructure/http/v1/dto"
	"fabriq/internal/infrastructure/storage/postgres"
	"fabriq/pkg/logger"
)

// QuotationHandler handles HTTP requests for Quotation documents.
type QuotationHandler struct {
	*BaseHandler
	service *quotation.Service
	audit   *postgres.AuditService
}

// NewQuotationHandler creates a new quotation handler.
func NewQuotationHandler(base *BaseHandler, service *quotation.Service, audit *postgres.AuditService) *QuotationHandler {
	return &QuotationHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

func (h *QuotationHandler) logAudit(c *gin.Context, docID id.ID, action postgres.AuditAction, snapshot any) {
	ctx := c.Request.Context()
	if err := h.audit.LogSnapshot(ctx, "quotation", docID, action, snapshot); err != nil {
		logger.Warn(ctx, "audit log failed", "entity", "quotation", "id", docID, "error", err)
	}
}

// List handles GET /documents/quotations - list with filtering.
func (h *QuotationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := quotation.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if customerID := c.Query("customerId"); customerID != "" {
		parsed, err := id.Parse(customerID)
		if err == nil {
			filter.CustomerID = &parsed
		}
	}

	if st := c.Query("status"); st != "" {
		val := status.QuotationStatus(st)
		filter.Status = &val
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.QuotationResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromQuotation(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /documents/quotations/:id
func (h *QuotationHandler) Get(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromQuotation(doc))
}

// Create handles POST /documents/quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	var req dto.CreateQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity(h.GetTenantID(c))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromQuotation(doc)
	h.logAudit(c, doc.ID, postgres.AuditActionCreate, response)
	c.JSON(http.StatusCreated, response)
}

// Update handles PUT /documents/quotations/:id
func (h *QuotationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(doc); err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromQuotation(doc)
	h.logAudit(c, doc.ID, postgres.AuditActionUpdate, response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /documents/quotations/:id - soft delete of drafts.
func (h *QuotationHandler) Delete(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, docID, postgres.AuditActionDelete, nil)
	h.NoContent(c)
}

// Transition handles POST /documents/quotations/:id/transition
func (h *QuotationHandler) Transition(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.QuotationTransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.TransitionStatus(ctx, docID, req.Status, req.Version); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, docID, postgres.AuditActionStatus, gin.H{"status": req.Status})
	h.OK(c, dto.FromQuotation(doc))
}

// CancelLine handles POST /documents/quotations/:id/lines/:lineId/cancel
func (h *QuotationHandler) CancelLine(c *gin.Context) {
	h.lineAction(c, func(ctx *gin.Context, docID, lineID id.ID, version int) error {
		return h.service.CancelLine(ctx.Request.Context(), docID, lineID, version)
	})
}

// StartProduction handles POST /documents/quotations/:id/lines/:lineId/start-production
func (h *QuotationHandler) StartProduction(c *gin.Context) {
	h.lineAction(c, func(ctx *gin.Context, docID, lineID id.ID, version int) error {
		return h.service.StartProduction(ctx.Request.Context(), docID, lineID, version)
	})
}

func (h *QuotationHandler) lineAction(c *gin.Context, action func(*gin.Context, id.ID, id.ID, int) error) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}
	lineID, err := id.Parse(c.Param("lineId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lineId format"))
		return
	}

	var req dto.LineActionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := action(c, docID, lineID, req.Version); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromQuotation(doc))
}

// RecordProduction handles POST /documents/quotations/:id/lines/:lineId/record-production
func (h *QuotationHandler) RecordProduction(c *gin.Context) {
	h.lineQuantityAction(c, h.service.RecordProduction, postgres.AuditActionUpdate)
}

// RecordDispatch handles POST /documents/quotations/:id/lines/:lineId/record-dispatch
func (h *QuotationHandler) RecordDispatch(c *gin.Context) {
	h.lineQuantityAction(c, h.service.RecordDispatch, postgres.AuditActionDispatch)
}

func (h *QuotationHandler) lineQuantityAction(
	c *gin.Context,
	action func(ctx context.Context, docID, lineID id.ID, qty types.Quantity, version int) error,
	auditAction postgres.AuditAction,
) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}
	lineID, err := id.Parse(c.Param("lineId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lineId format"))
		return
	}

	var req dto.LineQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := action(c.Request.Context(), docID, lineID, req.Quantity, req.Version); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.logAudit(c, docID, auditAction, gin.H{"lineId": lineID, "quantity": req.Quantity})
	h.OK(c, dto.FromQuotation(doc))
}
