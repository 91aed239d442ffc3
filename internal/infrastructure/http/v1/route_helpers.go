// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"fabriq/internal/infrastructure/http/v1/middleware"
)

// Role names used for route protection. Admin users bypass role checks.
const (
	RoleManager    = "manager"
	RoleSales      = "sales"
	RoleProduction = "production"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByCode(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// Reads are open to any authenticated user; writes require a role.
//
// Usage:
//
//	repo := catalog_repo.NewProductRepo(cfg.TxManager)
//	service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
//	handler := handlers.NewProductHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/products"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	write := middleware.RequireRole(RoleManager, RoleSales)

	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.GET("/by-code/:code", handler.GetByCode)
	group.POST("", write, handler.Create)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
	group.POST("/:id/deletion-mark", write, handler.SetDeletionMark)
}

// DocumentRouteHandler defines the interface for document handlers.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Transition(c *gin.Context)
	CancelLine(c *gin.Context)
	StartProduction(c *gin.Context)
	RecordProduction(c *gin.Context)
	RecordDispatch(c *gin.Context)
}

// RegisterDocumentRoutes registers standard CRUD + lifecycle routes for a
// document type. Pricing edits need a sales role, production tracking a
// production role.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	write := middleware.RequireRole(RoleManager, RoleSales)
	produce := middleware.RequireRole(RoleManager, RoleProduction)

	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("", write, handler.Create)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
	group.POST("/:id/transition", write, handler.Transition)
	group.POST("/:id/lines/:lineId/cancel", write, handler.CancelLine)
	group.POST("/:id/lines/:lineId/start-production", produce, handler.StartProduction)
	group.POST("/:id/lines/:lineId/record-production", produce, handler.RecordProduction)
	group.POST("/:id/lines/:lineId/record-dispatch", produce, handler.RecordDispatch)
}
