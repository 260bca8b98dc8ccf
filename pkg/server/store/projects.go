package store

// Project represents a tenant
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// ProjectsStore abstracts project lookups
type ProjectsStore interface {
	// GetProject retrieves a project by id
	GetProject(projectID string) *Project

	// GetProjectByName retrieves a project by name
	GetProjectByName(name string) *Project

	// ListProjects lists all projects ordered by name
	ListProjects() []Project
}
