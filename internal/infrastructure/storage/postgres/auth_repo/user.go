// Package auth_repo provides PostgreSQL implementation of auth repositories.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/core/tenant"
	"fabriq/internal/domain/auth"
	"fabriq/internal/infrastructure/storage/postgres"
)

const usersTable = "sys_users"

var userCols = postgres.ExtractDBColumns[auth.User]()

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

func (r *UserRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *UserRepo) tenantID(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		return "", apperror.NewInternal(errors.New("no tenant in context")).
			WithDetail("table", usersTable)
	}
	return tenantID, nil
}

func (r *UserRepo) baseSelect(tenantID string) squirrel.SelectBuilder {
	return r.builder().
		Select(userCols...).
		From(usersTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	data := postgres.StructToMap(user)

	q := r.builder().
		Insert(usersTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict("email already registered").
				WithDetail("email", user.Email).
				WithCause(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": userID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"email": email}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// Update updates user data with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	data := postgres.StructToMap(user)
	delete(data, "id")
	delete(data, "tenant_id")
	delete(data, "version")
	delete(data, "created_at")

	q := r.builder().
		Update(usersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID}).
		Where(squirrel.Eq{"tenant_id": user.TenantID}).
		Where(squirrel.Eq{"version": user.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewStaleVersion("user", user.ID)
	}

	user.SetVersion(user.Version + 1)
	return nil
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int64, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := r.baseSelect(tenantID)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"first_name": pattern},
			squirrel.ILike{"last_name": pattern},
		})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q = q.OrderBy("email ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, querier, &users, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// ExistsByEmail checks if email is taken within the tenant.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder().
		Select("1").
		From(usersTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"email": email}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return true, nil
}
