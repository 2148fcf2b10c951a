package enums

import "fmt"

// UserRole is the tenant-scoped role of a staff user.
type UserRole string

const (
	UserRoleOwner   UserRole = "owner"
	UserRoleManager UserRole = "manager"
	UserRoleCashier UserRole = "cashier"
	UserRoleKitchen UserRole = "kitchen"
	UserRoleCourier UserRole = "courier"
)

var validUserRoles = []UserRole{
	UserRoleOwner,
	UserRoleManager,
	UserRoleCashier,
	UserRoleKitchen,
	UserRoleCourier,
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
