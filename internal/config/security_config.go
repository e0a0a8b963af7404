// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// RouteSecurityConfig maps mux route names to their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	"health": SecurityPublic,

	// Bookings
	"createBooking":       SecurityAccess,
	"listBookings":        SecurityAccess,
	"getBooking":          SecurityAccess,
	"updateBookingStatus": SecurityAccess,

	// Escrow
	"releaseEscrow":   SecurityAccess,
	"listSettlements": SecurityAccess,

	// Notifications
	"listNotifications":    SecurityAccess,
	"markNotificationRead": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAccess
}
