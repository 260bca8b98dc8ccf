package gorm

import (
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store"
)

// Ensure AssignmentsStore implements store.AssignmentsStore
var _ store.AssignmentsStore = (*AssignmentsStore)(nil)

// AssignmentsStore implements store.AssignmentsStore using GORM
type AssignmentsStore struct {
	db *gorm.DB
}

// NewAssignmentsStore creates a new AssignmentsStore
func NewAssignmentsStore(db *gorm.DB) *AssignmentsStore {
	return &AssignmentsStore{db: db}
}

// Grant adds a role to a user on a project
func (s *AssignmentsStore) Grant(userID, projectID, roleID string) error {
	return s.db.Exec(`
		INSERT INTO user_project_metadata (user_id, project_id, role_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, userID, projectID, roleID).Error
}

// Revoke removes a role from a user on a project
func (s *AssignmentsStore) Revoke(userID, projectID, roleID string) error {
	return s.db.Exec(`
		DELETE FROM user_project_metadata
		WHERE user_id = ? AND project_id = ? AND role_id = ?
	`, userID, projectID, roleID).Error
}

// Exists checks if a specific grant exists
func (s *AssignmentsStore) Exists(userID, projectID, roleID string) bool {
	var exists bool
	s.db.Raw(`
		SELECT EXISTS(
			SELECT 1 FROM user_project_metadata
			WHERE user_id = ? AND project_id = ? AND role_id = ?
		)
	`, userID, projectID, roleID).Scan(&exists)
	return exists
}

// HasProject checks whether the user holds any role on the project
func (s *AssignmentsStore) HasProject(userID, projectID string) bool {
	var exists bool
	s.db.Raw(`
		SELECT EXISTS(
			SELECT 1 FROM user_project_metadata
			WHERE user_id = ? AND project_id = ?
		)
	`, userID, projectID).Scan(&exists)
	return exists
}

// ListByUser returns all grants for a user
func (s *AssignmentsStore) ListByUser(userID string) []store.Assignment {
	return s.scanAssignments(`
		SELECT user_id, project_id, role_id, created_at
		FROM user_project_metadata
		WHERE user_id = ?
		ORDER BY project_id, role_id
	`, userID)
}

// ListByProject returns all grants on a project
func (s *AssignmentsStore) ListByProject(projectID string) []store.Assignment {
	return s.scanAssignments(`
		SELECT user_id, project_id, role_id, created_at
		FROM user_project_metadata
		WHERE project_id = ?
		ORDER BY user_id, role_id
	`, projectID)
}

// EnsureDefault creates the default grant for a user unless the user
// already holds some role on the project. The insert itself is
// conflict-free, so two racing first logins produce a single row.
func (s *AssignmentsStore) EnsureDefault(userID, projectID, roleID string) (bool, error) {
	if s.HasProject(userID, projectID) {
		return false, nil
	}

	tx := s.db.Exec(`
		INSERT INTO user_project_metadata (user_id, project_id, role_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, userID, projectID, roleID)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (s *AssignmentsStore) scanAssignments(query string, args ...interface{}) []store.Assignment {
	var rows []store.Assignment
	s.db.Raw(query, args...).Scan(&rows)
	return rows
}
