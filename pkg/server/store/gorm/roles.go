package gorm

import (
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/model"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store"
)

// Ensure RolesStore implements store.RolesStore
var _ store.RolesStore = (*RolesStore)(nil)

// RolesStore implements store.RolesStore using GORM
type RolesStore struct {
	db *gorm.DB
}

// NewRolesStore creates a new RolesStore
func NewRolesStore(db *gorm.DB) *RolesStore {
	return &RolesStore{db: db}
}

// GetRole retrieves a role by id
func (s *RolesStore) GetRole(roleID string) *store.Role {
	return s.fetch(&model.Role{ID: roleID})
}

// GetRoleByName retrieves a role by name
func (s *RolesStore) GetRoleByName(name string) *store.Role {
	return s.fetch(&model.Role{Name: name})
}

// ListRoles lists all roles ordered by name
func (s *RolesStore) ListRoles() []store.Role {
	var rows []model.Role
	s.db.Order("name").Find(&rows)

	roles := make([]store.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, store.Role{ID: row.ID, Name: row.Name})
	}
	return roles
}

func (s *RolesStore) fetch(query *model.Role) *store.Role {
	var row model.Role
	if s.db.Where(query).First(&row).Error != nil {
		return nil
	}
	return &store.Role{ID: row.ID, Name: row.Name}
}
