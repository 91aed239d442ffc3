package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/id"
	"fabriq/internal/core/tenant"
	"fabriq/internal/core/tx"
	"fabriq/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Service provides authentication logic.
type Service struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

func (s *Service) requireTenantID(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		return "", apperror.NewValidation("tenant is required").
			WithDetail("header", "X-Tenant-ID")
	}
	return tenantID, nil
}

// Register registers a new user in the current tenant.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	tenantID, err := s.requireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if req.Email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}

	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", req.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(tenantID, req.Email, string(passwordHash))
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info(ctx, "user registered",
		"user_id", user.ID,
		"email", user.Email)

	return user, nil
}

// Login authenticates user and returns tokens.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	if _, err := s.requireTenantID(ctx); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.userRepo.Update(ctx, user)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin()
	_ = s.userRepo.Update(ctx, user)

	logger.Info(ctx, "user logged in",
		"user_id", user.ID,
		"email", user.Email)

	return tokens, user, nil
}

// RefreshToken rotates the refresh token and issues a new pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	token, err := s.tokenRepo.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}

	if !token.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}

	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	// Rotation: the presented token is single-use.
	_ = s.tokenRepo.RevokeRefreshToken(ctx, token.ID, "refreshed")

	return s.generateTokenPair(ctx, user)
}

// Logout revokes all user's refresh tokens.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	return s.tokenRepo.RevokeAllUserTokens(ctx, userID, "logout")
}

// GetUserByID retrieves a user.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return user, nil
}

// ListUsers lists users with filtering.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int64, error) {
	return s.userRepo.List(ctx, filter)
}

// ChangePassword updates the password after verifying the current one and
// revokes outstanding refresh tokens.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.NewNotFound("user", userID.String())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.NewUnauthorized("invalid credentials")
	}

	if len(next) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		return s.tokenRepo.RevokeAllUserTokens(ctx, userID, "password changed")
	})
}

// generateTokenPair creates access and refresh tokens.
func (s *Service) generateTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshTokenRaw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:        id.New(),
		TenantID:  user.TenantID,
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: time.Now().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
