// config/security_config.go
package config

import "rental-marketplace-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurity is the policy for one named route.
type EndpointSecurity struct {
	Level SecurityLevel
	// Roles allowed to call the route. Empty means any authenticated role.
	Roles []domain.Role
}

var (
	anyRole      = EndpointSecurity{Level: SecurityAccess}
	tenantOnly   = EndpointSecurity{Level: SecurityAccess, Roles: []domain.Role{domain.RoleTenant}}
	landlordOnly = EndpointSecurity{Level: SecurityAccess, Roles: []domain.Role{domain.RoleLandlord}}
	manager      = EndpointSecurity{Level: SecurityAccess, Roles: []domain.Role{domain.RoleLandlord, domain.RoleAdmin}}
	payer        = EndpointSecurity{Level: SecurityAccess, Roles: []domain.Role{domain.RoleTenant, domain.RoleAdmin}}
)

// EndpointSecurityConfig maps route names to their required security policy.
// Ownership checks beyond the role happen in the services.
var EndpointSecurityConfig = map[string]EndpointSecurity{
	// Health - Public
	"Health": {Level: SecurityPublic},

	// PropertyService
	"CreateProperty": landlordOnly,
	"GetProperty":    anyRole,
	"ListProperties": anyRole,
	"UpdateProperty": manager,

	// ApplicationService
	"SubmitApplication":        tenantOnly,
	"DecideApplication":        manager,
	"GetApplication":           anyRole,
	"CheckApplicationStatus":   tenantOnly,
	"ListTenantApplications":   tenantOnly,
	"ListLandlordApplications": landlordOnly,

	// LeaseService
	"GetLease":       anyRole,
	"ListLeases":     anyRole,
	"TerminateLease": manager,

	// PaymentService
	"CreatePaymentOrder":  payer,
	"CapturePaymentOrder": payer,
	"GetPayment":          anyRole,
	"ListLeasePayments":   anyRole,
	"GetPaymentHistory":   anyRole,

	// NotificationService
	"GetNotifications":     anyRole,
	"MarkNotificationRead": anyRole,
	"StreamEvents":         anyRole,

	// StatsService
	"GetStatsOverview": anyRole,
}

// GetEndpointSecurity returns the policy for a given route name
func GetEndpointSecurity(route string) EndpointSecurity {
	if sec, exists := EndpointSecurityConfig[route]; exists {
		return sec
	}
	// Default to highest security for unknown endpoints
	return anyRole
}

// Allows reports whether the role satisfies the policy.
func (e EndpointSecurity) Allows(role domain.Role) bool {
	if len(e.Roles) == 0 {
		return true
	}
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}
