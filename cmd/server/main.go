// Package main is the entry point for the fabriq API server.
// Multi-tenant architecture: shared database, tenant_id on every row.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fabriq/internal/core/tenant"
	"fabriq/internal/domain/auth"
	"fabriq/internal/domain/pricing"
	"fabriq/internal/infrastructure/cache"
	v1 "fabriq/internal/infrastructure/http/v1"
	"fabriq/internal/infrastructure/numerator"
	"fabriq/internal/infrastructure/storage/postgres"
	"fabriq/internal/infrastructure/storage/postgres/auth_repo"
	"fabriq/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting fabriq server (shared-database mode)")

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 25); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	if minConns := getEnvInt("DB_MIN_CONNS", 5); minConns > 0 {
		poolCfg.MinConns = int32(minConns)
	}
	if lifetime := getEnvDuration("DB_CONN_LIFETIME", time.Hour); lifetime > 0 {
		poolCfg.MaxConnLifetime = lifetime
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("database connection established",
		"max_conns", poolCfg.MaxConns,
		"min_conns", poolCfg.MinConns,
	)

	txManager := postgres.NewTxManager(pool)

	// --- Tenant Registry ---
	// The middleware resolves a tenant per request; cache lookups and let
	// LISTEN/NOTIFY drop stale entries.
	registry := cache.NewTenantCache(pool.Unwrap(), tenant.NewPostgresRegistry(pool.Unwrap()))
	if err := registry.Start(ctx); err != nil {
		log.Fatalw("failed to start tenant cache", "error", err)
	}
	defer registry.Stop()

	// --- JWT Service ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtConfig := auth.DefaultJWTConfig(jwtSecret)
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Auth Service ---
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)

	authConfig := auth.DefaultServiceConfig()
	authService := auth.NewService(
		userRepo,
		tokenRepo,
		txManager,
		jwtService,
		authConfig,
	)

	// --- Numerator Service ---
	numeratorService := numerator.New(txManager)

	// --- Audit Service ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Pricing Policy Cache ---
	policyCache := pricing.NewPolicyCache()

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		TxManager:      txManager,
		TenantRegistry: registry,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		Numerator:      numeratorService,
		Audit:          auditService,
		Policies:       policyCache,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port, "mode", "shared-database")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
