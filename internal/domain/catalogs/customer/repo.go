package customer

import (
	"context"

	"fabriq/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// FindByTIN retrieves a customer by tax identification number.
	FindByTIN(ctx context.Context, tin string) (*Customer, error)
}
