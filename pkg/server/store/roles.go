package store

// Role represents a role definition
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RolesStore abstracts role lookups
type RolesStore interface {
	// GetRole retrieves a role by id
	GetRole(roleID string) *Role

	// GetRoleByName retrieves a role by name
	GetRoleByName(name string) *Role

	// ListRoles lists all roles ordered by name
	ListRoles() []Role
}
