package v1

import (
	"github.com/gin-gonic/gin"

	"fabriq/internal/core/numerator"
	"fabriq/internal/core/tenant"
	"fabriq/internal/domain/auth"
	"fabriq/internal/domain/catalogs/customer"
	"fabriq/internal/domain/catalogs/product"
	"fabriq/internal/domain/documents/quotation"
	"fabriq/internal/domain/documents/sale"
	"fabriq/internal/domain/pricing"
	"fabriq/internal/infrastructure/http/v1/handlers"
	"fabriq/internal/infrastructure/http/v1/middleware"
	"fabriq/internal/infrastructure/storage/postgres"
	"fabriq/internal/infrastructure/storage/postgres/catalog_repo"
	"fabriq/internal/infrastructure/storage/postgres/document_repo"
	"fabriq/pkg/logger"
)

// RouterConfig holds the wired dependencies for the HTTP layer.
type RouterConfig struct {
	// Pool is the shared database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager drives transactions on the shared pool
	TxManager *postgres.TxManager

	// TenantRegistry resolves tenants from the X-Tenant-ID header
	TenantRegistry tenant.Registry

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for gap-free document numbering
	Numerator numerator.Generator

	// Audit records document changes
	Audit *postgres.AuditService

	// Policies caches compiled tenant discount policies
	Policies *pricing.PolicyCache
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes need the tenant middleware BEFORE auth: login and
		// registration are tenant-scoped but carry no token yet.
		registerAuthRoutes(v1, cfg)

		// Protected endpoints: tenant first, then JWT.
		protected := v1.Group("")
		protected.Use(middleware.Tenant(cfg.TenantRegistry))
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerCatalogRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required, but tenant-scoped)
	publicAuth := rg.Group("/auth")
	publicAuth.Use(middleware.Tenant(cfg.TenantRegistry))

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Tenant(cfg.TenantRegistry))
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- PRODUCTS ---
	{
		repo := catalog_repo.NewProductRepo(cfg.TxManager)
		service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewProductHandler(baseHandler, service)

		group := catalogs.Group("/products")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-sku/:sku", handler.GetBySKU)
	}

	// --- CUSTOMERS ---
	{
		repo := catalog_repo.NewCustomerRepo(cfg.TxManager)
		service := customer.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewCustomerHandler(baseHandler, service)

		group := catalogs.Group("/customers")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-tin/:tin", handler.GetByTIN)
	}
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	docsGroup := rg.Group("/documents")
	baseHandler := handlers.NewBaseHandler()

	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	productService := product.NewService(productRepo, cfg.TxManager, cfg.Numerator)

	quotationRepo := document_repo.NewQuotationRepo(cfg.TxManager)
	quotationService := quotation.NewService(
		quotationRepo, productService, cfg.Numerator, cfg.TxManager, cfg.Policies)

	// --- QUOTATIONS ---
	{
		handler := handlers.NewQuotationHandler(baseHandler, quotationService, cfg.Audit)
		RegisterDocumentRoutes(docsGroup.Group("/quotations"), handler)
	}

	// --- SALE INVOICES ---
	{
		repo := document_repo.NewSaleRepo(cfg.TxManager)
		service := sale.NewService(
			repo, quotationService, productService, cfg.Numerator, cfg.TxManager, cfg.Policies)
		handler := handlers.NewSaleInvoiceHandler(baseHandler, service, cfg.Audit)

		group := docsGroup.Group("/sale-invoices")
		RegisterDocumentRoutes(group, handler)
		group.POST("/convert", middleware.RequireRole(RoleManager, RoleSales), handler.ConvertFromQuotation)
	}
}
