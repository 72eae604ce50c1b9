package enums

import (
	"fmt"
	"strings"
)

// Role is the coarse role asserted by the identity provider.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleLoader Role = "Loader"
	RoleViewer Role = "Viewer"
)

var validRoles = []Role{RoleAdmin, RoleLoader, RoleViewer}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the role is recognized.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role, ignoring case.
func ParseRole(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validRoles {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
