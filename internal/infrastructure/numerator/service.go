// Package numerator provides the PostgreSQL implementation of gap-free
// document numbering. It implements core/numerator.Generator.
package numerator

import (
	"context"
	"errors"

	corenumerator "fabriq/internal/core/numerator"
	"fabriq/internal/infrastructure/storage/postgres"
)

// TxSource supplies the querier of the caller's active transaction.
// *postgres.TxManager satisfies it.
type TxSource interface {
	GetQuerier(ctx context.Context) postgres.Querier
	InTransaction(ctx context.Context) bool
}

// Service allocates sequence values via an UPSERT on the counter row.
//
// The RETURNING clause reads the incremented value while the row stays
// exclusively locked until the enclosing transaction commits. Concurrent
// allocations for the same (tenant, docType) queue on the row lock, so
// committed values are strictly increasing and gap-free: a rollback returns
// the value to the counter.
//
// The price is serialization per tenant and document type. lock_timeout on
// the transaction bounds the wait; exceeding it surfaces as
// apperror.CodeLockTimeout, which is retryable.
type Service struct {
	txSource TxSource
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numbering service.
func New(txSource TxSource) *Service {
	return &Service{txSource: txSource}
}

const nextSequenceSQL = `
	INSERT INTO document_sequences (tenant_id, doc_type, last_value)
	VALUES ($1, $2, 1)
	ON CONFLICT (tenant_id, doc_type)
	DO UPDATE SET last_value = document_sequences.last_value + 1
	RETURNING last_value
`

// Next returns the next sequence value for the tenant and document type.
// Requires an active transaction in ctx: allocating outside one would commit
// the counter independently and leak numbers on failure.
func (s *Service) Next(ctx context.Context, tenantID string, docType string) (int64, error) {
	if !s.txSource.InTransaction(ctx) {
		return 0, errors.New("numerator: Next requires an active transaction")
	}

	querier := s.txSource.GetQuerier(ctx)

	var value int64
	if err := querier.QueryRow(ctx, nextSequenceSQL, tenantID, docType).Scan(&value); err != nil {
		return 0, postgres.MapError(err, "document_sequences/"+docType)
	}
	return value, nil
}
