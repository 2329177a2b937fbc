package domain

// Role constants define the allowed user roles.
const (
	RoleAdmin     = "admin"
	RoleSuperUser = "super-user"
	RoleUser      = "user"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleAdmin, RoleSuperUser, RoleUser}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}
