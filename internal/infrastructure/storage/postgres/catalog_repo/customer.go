package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"fabriq/internal/core/apperror"
	"fabriq/internal/domain/catalogs/customer"
	"fabriq/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			customerTable,
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

// FindByTIN retrieves a customer by tax identification number.
func (r *CustomerRepo) FindByTIN(ctx context.Context, tin string) (*customer.Customer, error) {
	q, err := r.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	q = q.
		Where(squirrel.Eq{"tin": tin}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("customer", tin)
		}
		return nil, err
	}
	return item, nil
}
