package model

import "time"

// Assignment is one (user, project, role) association in
// user_project_metadata. UserID is opaque: for directory users it is
// whatever id the LDAP backend reports, and there is deliberately no
// foreign key into users.
type Assignment struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	ProjectID string    `gorm:"column:project_id;primaryKey"`
	RoleID    string    `gorm:"column:role_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Assignment) TableName() string {
	return "user_project_metadata"
}
