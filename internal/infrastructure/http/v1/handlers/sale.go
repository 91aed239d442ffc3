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
	"fabriq/internal/domain/documents/sale"
	"fabriq/internal/domain/documents/status"
	"fabriq/internal/infrastructure/http/v1/dto"
	"fabriq/internal/infrastructure/storage/postgres"
	"fabriq/pkg/logger"
)

// SaleInvoiceHandler handles HTTP requests for SaleInvoice documents.
type SaleInvoiceHandler struct {
	*BaseHandler
	service *sale.Service
	audit   *postgres.AuditService
}

// NewSaleInvoiceHandler creates a new sale invoice handler.
func NewSaleInvoiceHandler(base *BaseHandler, service *sale.Service, audit *postgres.AuditService) *SaleInvoiceHandler {
	return &SaleInvoiceHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

func (h *SaleInvoiceHandler) logAudit(c *gin.Context, docID id.ID, action postgres.AuditAction, snapshot any) {
	ctx := c.Request.Context()
	if err := h.audit.LogSnapshot(ctx, "sale_invoice", docID, action, snapshot); err != nil {
		logger.Warn(ctx, "audit log failed", "entity", "sale_invoice", "id", docID, "error", err)
	}
}

// List handles GET /documents/sale-invoices - list with filtering.
func (h *SaleInvoiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := sale.ListFilter{
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

	if quotationID := c.Query("sourceQuotationId"); quotationID != "" {
		parsed, err := id.Parse(quotationID)
		if err == nil {
			filter.SourceQuotationID = &parsed
		}
	}

	if st := c.Query("status"); st != "" {
		val := status.SaleStatus(st)
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

	items := make([]*dto.SaleInvoiceResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromSaleInvoice(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /documents/sale-invoices/:id
func (h *SaleInvoiceHandler) Get(c *gin.Context) {
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

	h.OK(c, dto.FromSaleInvoice(doc))
}

// Create handles POST /documents/sale-invoices
func (h *SaleInvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateSaleInvoiceRequest
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

	response := dto.FromSaleInvoice(doc)
	h.logAudit(c, doc.ID, postgres.AuditActionCreate, response)
	c.JSON(http.StatusCreated, response)
}

// ConvertFromQuotation handles POST /documents/sale-invoices/convert
func (h *SaleInvoiceHandler) ConvertFromQuotation(c *gin.Context) {
	var req dto.ConvertQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	quotationID, err := id.Parse(req.QuotationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid quotationId format"))
		return
	}

	doc, err := h.service.ConvertFromQuotation(c.Request.Context(), quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromSaleInvoice(doc)
	h.logAudit(c, doc.ID, postgres.AuditActionConvert, response)
	c.JSON(http.StatusCreated, response)
}

// Update handles PUT /documents/sale-invoices/:id
func (h *SaleInvoiceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateSaleInvoiceRequest
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

	response := dto.FromSaleInvoice(doc)
	h.logAudit(c, doc.ID, postgres.AuditActionUpdate, response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /documents/sale-invoices/:id - soft delete of drafts.
func (h *SaleInvoiceHandler) Delete(c *gin.Context) {
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

// Transition handles POST /documents/sale-invoices/:id/transition
func (h *SaleInvoiceHandler) Transition(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SaleTransitionRequest
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
	h.OK(c, dto.FromSaleInvoice(doc))
}

// CancelLine handles POST /documents/sale-invoices/:id/lines/:lineId/cancel
func (h *SaleInvoiceHandler) CancelLine(c *gin.Context) {
	h.lineAction(c, func(ctx *gin.Context, docID, lineID id.ID, version int) error {
		return h.service.CancelLine(ctx.Request.Context(), docID, lineID, version)
	})
}

// StartProduction handles POST /documents/sale-invoices/:id/lines/:lineId/start-production
func (h *SaleInvoiceHandler) StartProduction(c *gin.Context) {
	h.lineAction(c, func(ctx *gin.Context, docID, lineID id.ID, version int) error {
		return h.service.StartProduction(ctx.Request.Context(), docID, lineID, version)
	})
}

func (h *SaleInvoiceHandler) lineAction(c *gin.Context, action func(*gin.Context, id.ID, id.ID, int) error) {
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
	h.OK(c, dto.FromSaleInvoice(doc))
}

// RecordProduction handles POST /documents/sale-invoices/:id/lines/:lineId/record-production
func (h *SaleInvoiceHandler) RecordProduction(c *gin.Context) {
	h.lineQuantityAction(c, h.service.RecordProduction, postgres.AuditActionUpdate)
}

// RecordDispatch handles POST /documents/sale-invoices/:id/lines/:lineId/record-dispatch
func (h *SaleInvoiceHandler) RecordDispatch(c *gin.Context) {
	h.lineQuantityAction(c, h.service.RecordDispatch, postgres.AuditActionDispatch)
}

func (h *SaleInvoiceHandler) lineQuantityAction(
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
	h.OK(c, dto.FromSaleInvoice(doc))
}
