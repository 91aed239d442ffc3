// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fabriq/internal/core/tenant"
	"fabriq/pkg/logger"
)

// TenantCache wraps a tenant.Registry with an in-memory cache invalidated
// via PostgreSQL LISTEN/NOTIFY. The tenant middleware resolves a tenant on
// every request; without the cache each request costs a database round-trip.
//
// Invalidation channel: "tenants_changed", payload is the tenant UUID (empty
// payload flushes everything).
type TenantCache struct {
	pool *pgxpool.Pool
	next tenant.Registry

	mu     sync.RWMutex
	byID   map[string]*tenant.Tenant
	bySlug map[string]*tenant.Tenant

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewTenantCache creates a cache in front of next. The pool is used only for
// the LISTEN connection; lookups that miss the cache go through next.
func NewTenantCache(pool *pgxpool.Pool, next tenant.Registry) *TenantCache {
	return &TenantCache{
		pool:   pool,
		next:   next,
		byID:   make(map[string]*tenant.Tenant),
		bySlug: make(map[string]*tenant.Tenant),
	}
}

// Start begins listening for NOTIFY events.
func (c *TenantCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "tenant cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *TenantCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "tenant cache stopped")
}

// listenLoop listens for PostgreSQL NOTIFY events.
func (c *TenantCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Acquire dedicated connection for LISTEN
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		_, err = conn.Exec(c.ctx, "LISTEN tenants_changed;")
		if err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for tenants_changed notifications")

		// If the LISTEN connection dropped we may have missed notifications;
		// flush so stale entries cannot survive a reconnect.
		c.invalidate("")

		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks waiting for NOTIFY events.
func (c *TenantCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Wait with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return // Shutting down
			}
			if ctx.Err() != nil {
				continue // Timeout is expected
			}
			logger.Error(c.ctx, "LISTEN connection lost", "error", err)
			return // Reconnect in listenLoop
		}

		logger.Debug(c.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		c.invalidate(notification.Payload)
	}
}

// invalidate drops the cached tenant named by payload, or everything when
// the payload is empty.
func (c *TenantCache) invalidate(payload string) {
	tenantID := strings.TrimSpace(payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	if tenantID == "" {
		c.byID = make(map[string]*tenant.Tenant)
		c.bySlug = make(map[string]*tenant.Tenant)
		return
	}

	if t, ok := c.byID[tenantID]; ok {
		delete(c.bySlug, t.Slug)
	}
	delete(c.byID, tenantID)
}

func (c *TenantCache) store(t *tenant.Tenant) {
	c.mu.Lock()
	c.byID[t.ID] = t
	c.bySlug[t.Slug] = t
	c.mu.Unlock()
}

// GetByID implements tenant.Registry.
func (c *TenantCache) GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	c.mu.RLock()
	t, ok := c.byID[tenantID]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := c.next.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.store(t)
	return t, nil
}

// GetBySlug implements tenant.Registry.
func (c *TenantCache) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	c.mu.RLock()
	t, ok := c.bySlug[slug]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := c.next.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.store(t)
	return t, nil
}

// ListActive implements tenant.Registry. Listings are not cached.
func (c *TenantCache) ListActive(ctx context.Context) ([]*tenant.Tenant, error) {
	return c.next.ListActive(ctx)
}

// Create implements tenant.Registry.
func (c *TenantCache) Create(ctx context.Context, t *tenant.Tenant) error {
	return c.next.Create(ctx, t)
}

// UpdateStatusByID implements tenant.Registry. The local entry is dropped
// immediately; other instances converge via NOTIFY.
func (c *TenantCache) UpdateStatusByID(ctx context.Context, tenantID string, status tenant.Status) error {
	if err := c.next.UpdateStatusByID(ctx, tenantID, status); err != nil {
		return err
	}
	c.invalidate(tenantID)
	return nil
}

// Stats returns cache statistics.
type Stats struct {
	CachedTenants int
}

// GetStats returns current cache statistics.
func (c *TenantCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{CachedTenants: len(c.byID)}
}
