package pricing

import (
	"sync"
)

// PolicyCache memoizes compiled policies by expression text. Tenant policies
// change rarely; compiling per request would dominate document creation.
type PolicyCache struct {
	mu     sync.RWMutex
	byExpr map[string]*Policy
}

// NewPolicyCache creates an empty cache.
func NewPolicyCache() *PolicyCache {
	return &PolicyCache{byExpr: make(map[string]*Policy)}
}

// Get returns the compiled policy for expr, compiling on first use.
// An empty expression yields (nil, nil).
func (c *PolicyCache) Get(expr string) (*Policy, error) {
	if expr == "" {
		return nil, nil
	}

	c.mu.RLock()
	p, ok := c.byExpr[expr]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := CompilePolicy(expr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byExpr[expr] = p
	c.mu.Unlock()
	return p, nil
}
