package handlers

import (
	"github.com/gin-gonic/gin"

	"fabriq/internal/domain/catalogs/product"
	"fabriq/internal/infrastructure/http/v1/dto"
)

// ProductHTTPHandler is the concrete catalog handler for products.
type ProductHTTPHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler wires the generic catalog handler to the product service.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHTTPHandler {
	config := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:    service.CatalogService,
		EntityName: "product",

		MapCreateDTO: func(tenantID string, req dto.CreateProductRequest) *product.Product {
			return req.ToEntity(tenantID)
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *product.Product) any {
			return dto.FromProduct(entity)
		},
	}

	return &ProductHTTPHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// GetBySKU handles GET /products/by-sku/:sku - lookup by article number.
func (h *ProductHTTPHandler) GetBySKU(c *gin.Context) {
	p, err := h.service.FindBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}
