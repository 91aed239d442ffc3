package auth

import (
	"context"

	"fabriq/internal/core/id"
)

// UserRepository defines user storage operations. All lookups are scoped to
// the tenant in context.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves user by email (unique within tenant).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates user data with optimistic locking.
	Update(ctx context.Context, user *User) error

	// List retrieves users with filtering.
	List(ctx context.Context, filter UserFilter) ([]User, int64, error)

	// ExistsByEmail checks if email is taken within the tenant.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenRepository defines refresh token storage operations.
type TokenRepository interface {
	// SaveRefreshToken saves a refresh token.
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves refresh token by hash.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeRefreshToken revokes a refresh token.
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error

	// RevokeAllUserTokens revokes all tokens for a user.
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// CleanupExpiredTokens removes expired tokens.
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}
