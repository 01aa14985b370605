package models

// Role is a project-level authorization tier.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// IsValidRole reports whether the role is one of the known tiers.
func IsValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}
