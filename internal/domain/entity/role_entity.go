package entity

// Role represents an authorization tier
type Role string

const (
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a stored string onto the closed role set.
// Unknown values fall back to partner, the least privileged tier.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RolePartner
	}
}

func (r Role) Valid() bool {
	return r == RolePartner || r == RoleAdmin
}

// RoleAllowed reports whether role is in required.
func RoleAllowed(role Role, required ...Role) bool {
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
