package handlers

import (
	"github.com/gin-gonic/gin"

	"fabriq/internal/domain/catalogs/customer"
	"fabriq/internal/infrastructure/http/v1/dto"
)

// CustomerHTTPHandler is the concrete catalog handler for customers.
type CustomerHTTPHandler struct {
	*CatalogHandler[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]
	service *customer.Service
}

// NewCustomerHandler wires the generic catalog handler to the customer service.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHTTPHandler {
	config := CatalogHandlerConfig[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]{
		Service:    service.CatalogService,
		EntityName: "customer",

		MapCreateDTO: func(tenantID string, req dto.CreateCustomerRequest) *customer.Customer {
			return req.ToEntity(tenantID)
		},

		MapUpdateDTO: func(req dto.UpdateCustomerRequest, existing *customer.Customer) *customer.Customer {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *customer.Customer) any {
			return dto.FromCustomer(entity)
		},
	}

	return &CustomerHTTPHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// GetByTIN handles GET /customers/by-tin/:tin - lookup by tax number.
func (h *CustomerHTTPHandler) GetByTIN(c *gin.Context) {
	cust, err := h.service.FindByTIN(c.Request.Context(), c.Param("tin"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCustomer(cust))
}
