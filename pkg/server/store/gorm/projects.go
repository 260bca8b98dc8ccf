package gorm

import (
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/model"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store"
)

// Ensure ProjectsStore implements store.ProjectsStore
var _ store.ProjectsStore = (*ProjectsStore)(nil)

// ProjectsStore implements store.ProjectsStore using GORM
type ProjectsStore struct {
	db *gorm.DB
}

// NewProjectsStore creates a new ProjectsStore
func NewProjectsStore(db *gorm.DB) *ProjectsStore {
	return &ProjectsStore{db: db}
}

// GetProject retrieves a project by id
func (s *ProjectsStore) GetProject(projectID string) *store.Project {
	return s.fetch(&model.Project{ID: projectID})
}

// GetProjectByName retrieves a project by name
func (s *ProjectsStore) GetProjectByName(name string) *store.Project {
	return s.fetch(&model.Project{Name: name})
}

// ListProjects lists all projects ordered by name
func (s *ProjectsStore) ListProjects() []store.Project {
	var rows []model.Project
	s.db.Order("name").Find(&rows)

	projects := make([]store.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, store.Project{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Enabled:     row.Enabled,
		})
	}
	return projects
}

func (s *ProjectsStore) fetch(query *model.Project) *store.Project {
	var row model.Project
	if s.db.Where(query).First(&row).Error != nil {
		return nil
	}
	return &store.Project{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Enabled:     row.Enabled,
	}
}
