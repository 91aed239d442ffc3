package numerator

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	// NextFunc overrides the default behavior when set.
	NextFunc func(ctx context.Context, tenantID, docType string) (int64, error)

	mu       sync.Mutex
	counters map[string]int64
}

// Next implements Generator. By default it counts up per (tenant, docType)
// starting at 1, mirroring a fresh counter table.
func (m *MockGenerator) Next(ctx context.Context, tenantID, docType string) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tenantID, docType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := tenantID + ":" + docType
	m.counters[key]++
	return m.counters[key], nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
