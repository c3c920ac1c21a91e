package model

// Platform roles. A user carries exactly one role; the role alone decides
// authorization scope, there is no separate permission list.
const (
	RoleSuperAdmin         = "SUPER_ADMIN"
	RoleTenantAdmin        = "TENANT_ADMIN"
	RoleProjectManager     = "PROJECT_MANAGER"
	RoleContractorCompany  = "CONTRACTOR_COMPANY"
	RoleContractorEmployee = "CONTRACTOR_EMPLOYEE"
	RoleFinancialManager   = "FINANCIAL_MANAGER"
	RoleClient             = "CLIENT"
	RoleGuest              = "GUEST"
)

var roles = map[string]bool{
	RoleSuperAdmin:         true,
	RoleTenantAdmin:        true,
	RoleProjectManager:     true,
	RoleContractorCompany:  true,
	RoleContractorEmployee: true,
	RoleFinancialManager:   true,
	RoleClient:             true,
	RoleGuest:              true,
}

// ValidRole reports whether s is one of the platform roles.
func ValidRole(s string) bool {
	return roles[s]
}
