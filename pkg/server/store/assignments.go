package store

import "time"

// Assignment represents one (user, project, role) grant
type Assignment struct {
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AssignmentsStore abstracts user_project_metadata operations
type AssignmentsStore interface {
	// Grant adds a role to a user on a project (idempotent)
	Grant(userID, projectID, roleID string) error

	// Revoke removes a role from a user on a project
	Revoke(userID, projectID, roleID string) error

	// Exists checks if a specific grant exists
	Exists(userID, projectID, roleID string) bool

	// HasProject checks whether the user holds any role on the project
	HasProject(userID, projectID string) bool

	// ListByUser returns all grants for a user
	ListByUser(userID string) []Assignment

	// ListByProject returns all grants on a project
	ListByProject(projectID string) []Assignment

	// EnsureDefault creates the default grant for a user unless the
	// user already holds some role on the project. Returns whether a
	// row was created.
	EnsureDefault(userID, projectID, roleID string) (bool, error)
}
