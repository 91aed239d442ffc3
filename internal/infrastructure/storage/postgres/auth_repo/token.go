package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/domain/auth"
	"fabriq/internal/infrastructure/storage/postgres"
)

const tokensTable = "sys_refresh_tokens"

var tokenCols = postgres.ExtractDBColumns[auth.RefreshToken]()

// TokenRepo implements auth.TokenRepository.
//
// Tokens are looked up by hash, not tenant: the hash is unguessable and the
// refresh flow runs before tenant middleware resolves.
type TokenRepo struct {
	txManager *postgres.TxManager
}

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{txManager: txManager}
}

func (r *TokenRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SaveRefreshToken saves a refresh token.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	data := postgres.StructToMap(token)

	q := r.builder().
		Insert(tokensTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves refresh token by hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	q := r.builder().
		Select(tokenCols...).
		From(tokensTable).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var token auth.RefreshToken
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &token, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("refresh_token", "hash")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken revokes a refresh token.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	q := r.builder().
		Update(tokensTable).
		Set("revoked_at", squirrel.Expr("NOW()")).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"id": tokenID}).
		Where(squirrel.Eq{"revoked_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build revoke: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes all tokens for a user.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	q := r.builder().
		Update(tokensTable).
		Set("revoked_at", squirrel.Expr("NOW()")).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"revoked_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build revoke all: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes expired tokens.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	q := r.builder().
		Delete(tokensTable).
		Where(squirrel.Expr("expires_at < NOW()"))

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
