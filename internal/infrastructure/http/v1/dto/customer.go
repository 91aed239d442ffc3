package dto

import (
	"fabriq/internal/core/types"
	"fabriq/internal/domain/catalogs/customer"
)

// --- Request DTOs ---

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Code               string       `json:"code"`
	Name               string       `json:"name" binding:"required"`
	TIN                *string      `json:"tin"`
	Email              *string      `json:"email"`
	Phone              *string      `json:"phone"`
	BillingAddress     *string      `json:"billingAddress"`
	ShippingAddress    *string      `json:"shippingAddress"`
	DefaultDiscountPct *types.Money `json:"defaultDiscountPct"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCustomerRequest) ToEntity(tenantID string) *customer.Customer {
	c := customer.NewCustomer(tenantID, r.Code, r.Name)
	c.TIN = r.TIN
	c.Email = r.Email
	c.Phone = r.Phone
	c.BillingAddress = r.BillingAddress
	c.ShippingAddress = r.ShippingAddress
	c.DefaultDiscountPct = r.DefaultDiscountPct
	return c
}

// UpdateCustomerRequest is the request body for updating a customer.
type UpdateCustomerRequest struct {
	Code               string       `json:"code"`
	Name               string       `json:"name" binding:"required"`
	TIN                *string      `json:"tin"`
	Email              *string      `json:"email"`
	Phone              *string      `json:"phone"`
	BillingAddress     *string      `json:"billingAddress"`
	ShippingAddress    *string      `json:"shippingAddress"`
	DefaultDiscountPct *types.Money `json:"defaultDiscountPct"`
	Version            int          `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	c.Code = r.Code
	c.Name = r.Name
	c.TIN = r.TIN
	c.Email = r.Email
	c.Phone = r.Phone
	c.BillingAddress = r.BillingAddress
	c.ShippingAddress = r.ShippingAddress
	c.DefaultDiscountPct = r.DefaultDiscountPct
	c.Version = r.Version
}

// --- Response DTOs ---

// CustomerResponse is the response body for a customer.
type CustomerResponse struct {
	ID                 string       `json:"id"`
	Code               string       `json:"code"`
	Name               string       `json:"name"`
	TIN                *string      `json:"tin,omitempty"`
	Email              *string      `json:"email,omitempty"`
	Phone              *string      `json:"phone,omitempty"`
	BillingAddress     *string      `json:"billingAddress,omitempty"`
	ShippingAddress    *string      `json:"shippingAddress,omitempty"`
	DefaultDiscountPct *types.Money `json:"defaultDiscountPct,omitempty"`
	DeletionMark       bool         `json:"deletionMark"`
	Version            int          `json:"version"`
}

// FromCustomer creates response DTO from domain entity.
func FromCustomer(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:                 c.ID.String(),
		Code:               c.Code,
		Name:               c.Name,
		TIN:                c.TIN,
		Email:              c.Email,
		Phone:              c.Phone,
		BillingAddress:     c.BillingAddress,
		ShippingAddress:    c.ShippingAddress,
		DefaultDiscountPct: c.DefaultDiscountPct,
		DeletionMark:       c.DeletionMark,
		Version:            c.Version,
	}
}
