// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces, not on a concrete database;
// the implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested calls.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context: a document
	// create and its number allocation always share one atomic unit of work.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
