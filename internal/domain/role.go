package domain

import "fmt"

// Role is the closed set of roles a principal can hold.
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// ParseRole converts a raw string into a known Role.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// IsValid reports whether the role is one of the predefined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Satisfies reports whether r grants the capabilities of required.
// Admin is a superset of every role.
func (r Role) Satisfies(required Role) bool {
	if !r.IsValid() {
		return false
	}
	if r == RoleAdmin {
		return true
	}
	return r == required
}

func (r Role) String() string {
	return string(r)
}
