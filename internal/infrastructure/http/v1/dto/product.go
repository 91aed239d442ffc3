package dto

import (
	"fabriq/internal/core/types"
	"fabriq/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code        string       `json:"code"`
	Name        string       `json:"name" binding:"required"`
	SKU         *string      `json:"sku"`
	Unit        product.Unit `json:"unit" binding:"required"`
	UnitPrice   types.Money  `json:"unitPrice"`
	TaxPct      types.Money  `json:"taxPct"`
	WidthCm     *int         `json:"widthCm"`
	GSM         *int         `json:"gsm"`
	Composition *string      `json:"composition"`
	Description *string      `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity(tenantID string) *product.Product {
	p := product.NewProduct(tenantID, r.Code, r.Name, r.Unit)
	p.SKU = r.SKU
	p.UnitPrice = r.UnitPrice
	p.TaxPct = r.TaxPct
	p.WidthCm = r.WidthCm
	p.GSM = r.GSM
	p.Composition = r.Composition
	p.Description = r.Description
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Code        string       `json:"code"`
	Name        string       `json:"name" binding:"required"`
	SKU         *string      `json:"sku"`
	Unit        product.Unit `json:"unit" binding:"required"`
	UnitPrice   types.Money  `json:"unitPrice"`
	TaxPct      types.Money  `json:"taxPct"`
	WidthCm     *int         `json:"widthCm"`
	GSM         *int         `json:"gsm"`
	Composition *string      `json:"composition"`
	Description *string      `json:"description"`
	Version     int          `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.SKU = r.SKU
	p.Unit = r.Unit
	p.UnitPrice = r.UnitPrice
	p.TaxPct = r.TaxPct
	p.WidthCm = r.WidthCm
	p.GSM = r.GSM
	p.Composition = r.Composition
	p.Description = r.Description
	p.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID           string       `json:"id"`
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	SKU          *string      `json:"sku,omitempty"`
	Unit         product.Unit `json:"unit"`
	UnitPrice    types.Money  `json:"unitPrice"`
	TaxPct       types.Money  `json:"taxPct"`
	WidthCm      *int         `json:"widthCm,omitempty"`
	GSM          *int         `json:"gsm,omitempty"`
	Composition  *string      `json:"composition,omitempty"`
	Description  *string      `json:"description,omitempty"`
	DeletionMark bool         `json:"deletionMark"`
	Version      int          `json:"version"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		SKU:          p.SKU,
		Unit:         p.Unit,
		UnitPrice:    p.UnitPrice,
		TaxPct:       p.TaxPct,
		WidthCm:      p.WidthCm,
		GSM:          p.GSM,
		Composition:  p.Composition,
		Description:  p.Description,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}
