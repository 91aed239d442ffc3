// Package tenant provides tenant metadata and request-scoped tenant context.
// All tenants share one PostgreSQL database; isolation is logical, enforced
// by tenant_id columns and tenant-scoped locks.
package tenant

import (
	"fmt"
	"regexp"
	"time"
)

// Status represents tenant lifecycle state.
type Status string

const (
	// StatusActive - tenant can accept requests
	StatusActive Status = "active"

	// StatusSuspended - tenant is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusDeleted - tenant is marked for deletion
	StatusDeleted Status = "deleted"
)

// Tenant represents one isolated customer organization.
type Tenant struct {
	ID          string    `db:"id"`
	Slug        string    `db:"slug"`         // URL-safe identifier
	DisplayName string    `db:"display_name"` // Human-readable name
	Status      Status    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	// DiscountPolicy is an optional CEL expression evaluated before document
	// aggregation (e.g. "doc_discount_pct <= 30.0"). Empty means no limit.
	DiscountPolicy string `db:"discount_policy"`

	// AllowZeroTotal permits clamping a negative grand total to zero instead
	// of rejecting the document.
	AllowZeroTotal bool `db:"allow_zero_total"`
}

// IsActive returns true if tenant can accept requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// CreateTenantInput contains data for creating a new tenant.
type CreateTenantInput struct {
	Slug           string
	DisplayName    string
	DiscountPolicy string
	AllowZeroTotal bool
}

// Validate checks if input is valid.
func (i *CreateTenantInput) Validate() error {
	if !slugRe.MatchString(i.Slug) {
		return fmt.Errorf("invalid slug %q: must be lowercase alphanumeric with dashes", i.Slug)
	}
	if i.DisplayName == "" {
		return fmt.Errorf("display name is required")
	}
	return nil
}
