// Package authz holds the tenant authorization policy. Every tenant-scoped
// mutation in the service goes through the same predicate, so the policy
// cannot drift between components.
package authz

import "workforce-service/internal/model"

// Caller identifies the authenticated principal for authorization checks.
// TenantID is nil for users that have not joined a tenant.
type Caller struct {
	UserID   uint
	Role     string
	TenantID *uint
}

// CanAdminister reports whether the caller may perform administrative
// operations scoped to the given tenant. A SUPER_ADMIN passes
// unconditionally; a TENANT_ADMIN passes only for its own tenant; every
// other role is refused.
func CanAdminister(caller Caller, targetTenantID uint) bool {
	switch caller.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleTenantAdmin:
		return caller.TenantID != nil && *caller.TenantID == targetTenantID
	default:
		return false
	}
}
