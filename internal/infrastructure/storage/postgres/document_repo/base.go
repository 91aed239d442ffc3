// Package document_repo provides PostgreSQL implementations for document
// repositories. All tenants share one database, so every query carries a
// tenant_id predicate taken from the request context.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/core/tenant"
	"fabriq/internal/domain"
	"fabriq/internal/infrastructure/storage/postgres"
)

// versioned is satisfied by every entity embedding entity.BaseEntity.
type versioned interface {
	SetVersion(v int)
}

// BaseDocumentRepo provides common CRUD operations for document entities.
// Embed this in specific document repositories.
type BaseDocumentRepo[T versioned] struct {
	txManager  *postgres.TxManager
	tableName  string
	docType    string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T versioned](
	txManager *postgres.TxManager,
	tableName string,
	docType string,
	selectCols []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		docType:    docType,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) tenantID(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		return "", apperror.NewInternal(errors.New("no tenant in context")).
			WithDetail("table", r.tableName)
	}
	return tenantID, nil
}

// Create inserts a new document. A unique violation on the number columns
// surfaces as CodeDuplicateNumber.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapNumberError(err, r.docType, data["number"])
	}

	return nil
}

// Update updates an existing document with optimistic locking. The entity
// carries the version the caller loaded; on success the incremented version
// is synced back onto the entity.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field")
	}
	tenantID, ok := data["tenant_id"]
	if !ok {
		return fmt.Errorf("entity has no 'tenant_id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	// Exclude immutable fields. Sequence and number never change after
	// allocation; version/updated_at are managed here.
	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "tenant_id", "sequence", "number", "created_at", "created_by":
			continue
		case "version", "updated_at":
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", r.tableName, err), r.tableName)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewStaleVersion(r.docType, entityID)
	}

	entity.SetVersion(version + 1)
	return nil
}

// SetDeletionMark soft-deletes or restores a document.
func (r *BaseDocumentRepo[T]) SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": docID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set deletion mark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.docType, docID.String())
	}

	return nil
}

// baseSelect creates a tenant-scoped SELECT builder.
func (r *BaseDocumentRepo[T]) baseSelect(tenantID string) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// GetByID retrieves a document header by ID (without lines).
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	entity := r.newFn()

	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return entity, err
	}

	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": docID})

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.docType, docID.String())
		}
		return entity, fmt.Errorf("get by id: %w", err)
	}

	return entity, nil
}

// GetByNumber retrieves a document header by display number.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	entity := r.newFn()

	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return entity, err
	}

	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"number": number})

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.docType, number)
		}
		return entity, fmt.Errorf("get by number: %w", err)
	}

	return entity, nil
}

// list runs a filtered, paginated query. Concrete repos add their own
// predicates through the extend callback.
func (r *BaseDocumentRepo[T]) list(ctx context.Context, filter domain.ListFilter, extend func(squirrel.SelectBuilder) squirrel.SelectBuilder) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return result, err
	}

	q := r.baseSelect(tenantID)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if extend != nil {
		q = extend(q)
	}

	// Count total (before pagination)
	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}

	return result, nil
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}

	if strings.TrimSpace(orderBy) == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy).WithDetail("field", field)
	}

	return field + " " + direction, nil
}
