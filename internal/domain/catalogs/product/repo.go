package product

import (
	"context"

	"fabriq/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves a product by article number.
	FindBySKU(ctx context.Context, sku string) (*Product, error)
}
