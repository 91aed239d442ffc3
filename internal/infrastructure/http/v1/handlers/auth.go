package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fabriq/internal/core/apperror"
	appctx "fabriq/internal/core/context"
	"fabriq/internal/core/id"
	"fabriq/internal/domain/auth"
	"fabriq/internal/infrastructure/http/v1/dto"
	"fabriq/internal/infrastructure/http/v1/middleware"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(ctx, req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(ctx, req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Tokens: dto.FromTokenPair(tokens),
		User:   dto.FromUser(user),
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTokenPair(tokens))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.Logout(ctx, userID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password changed")
}

// ListUsers handles GET /auth/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	filter := auth.UserFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if isActive := c.Query("isActive"); isActive != "" {
		val := isActive == "true"
		filter.IsActive = &val
	}

	users, total, err := h.service.ListUsers(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.UserResponse, len(users))
	for i := range users {
		items[i] = dto.FromUser(&users[i])
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

func (h *AuthHandler) currentUserID(c *gin.Context) (id.ID, bool) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return id.Nil(), false
	}

	userID, err := id.Parse(user.UserID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid user id"))
		return id.Nil(), false
	}
	return userID, true
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	// Public routes (no auth required)
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.Refresh)

	// Protected routes (auth required)
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
	protected.POST("/change-password", h.ChangePassword)
	protected.GET("/users", middleware.RequireRole("admin"), h.ListUsers)
}
