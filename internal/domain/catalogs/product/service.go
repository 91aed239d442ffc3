package product

import (
	"context"
	"fmt"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/core/numerator"
	"fabriq/internal/core/tx"
	"fabriq/internal/domain"
)

// codeSeries is the counter series used for auto-generated product codes.
const codeSeries = "product_code"

var codeConfig = numerator.DefaultConfig("PR")

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	generator numerator.Generator
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, generator numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		generator:      generator,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.checkSKUUnique)

	return svc
}

// prepareForCreate generates a code when missing and checks SKU uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code == "" {
		seq, err := s.generator.Next(ctx, p.TenantID, codeSeries)
		if err != nil {
			return fmt.Errorf("generate product code: %w", err)
		}
		p.Code = codeConfig.Format(seq)
	}

	return s.checkSKUUnique(ctx, p)
}

func (s *Service) checkSKUUnique(ctx context.Context, p *Product) error {
	if p.SKU == nil || *p.SKU == "" {
		return nil
	}
	existing, err := s.repo.FindBySKU(ctx, *p.SKU)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != p.ID {
		return apperror.NewConflict("product with this SKU already exists").
			WithDetail("sku", *p.SKU)
	}
	return nil
}

// --- Entity-specific methods ---

// FindBySKU retrieves a product by article number.
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.FindBySKU(ctx, sku)
}

// Resolve fetches the product referenced by a document line.
// Not-found is reported as a validation error against the line.
func (s *Service) Resolve(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("product does not exist").
				WithDetail("productId", productID.String())
		}
		return nil, err
	}
	return p, nil
}
