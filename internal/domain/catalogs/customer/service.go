package customer

import (
	"context"
	"fmt"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/numerator"
	"fabriq/internal/core/tx"
	"fabriq/internal/domain"
)

const codeSeries = "customer_code"

var codeConfig = numerator.DefaultConfig("CU")

// Service provides business logic for the Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
	repo      Repository
	generator numerator.Generator
}

// NewService creates a new Customer service.
func NewService(repo Repository, txManager tx.Manager, generator numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "customer",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		generator:      generator,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.checkTINUnique)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, c *Customer) error {
	if c.Code == "" {
		seq, err := s.generator.Next(ctx, c.TenantID, codeSeries)
		if err != nil {
			return fmt.Errorf("generate customer code: %w", err)
		}
		c.Code = codeConfig.Format(seq)
	}

	return s.checkTINUnique(ctx, c)
}

func (s *Service) checkTINUnique(ctx context.Context, c *Customer) error {
	if c.TIN == nil || *c.TIN == "" {
		return nil
	}
	existing, err := s.repo.FindByTIN(ctx, *c.TIN)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != c.ID {
		return apperror.NewConflict("customer with this TIN already exists").
			WithDetail("tin", *c.TIN)
	}
	return nil
}

// FindByTIN retrieves a customer by tax identification number.
func (s *Service) FindByTIN(ctx context.Context, tin string) (*Customer, error) {
	return s.repo.FindByTIN(ctx, tin)
}
