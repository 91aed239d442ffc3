// Package numerator provides domain contracts for document numbering.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
)

// Generator allocates sequential document numbers.
//
// Implementations MUST allocate inside the caller's transaction, holding an
// exclusive lock on the (tenant, docType) counter row until commit. A rollback
// of the enclosing transaction rolls back the counter too, so committed
// numbers per tenant and type are strictly increasing with no gaps from
// failed requests.
type Generator interface {
	// Next returns the next sequence value for the tenant and document type.
	// Returns apperror.CodeLockTimeout if the counter row lock cannot be
	// acquired within the configured wait.
	Next(ctx context.Context, tenantID string, docType string) (int64, error)
}
