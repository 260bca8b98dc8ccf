package model

import "time"

// Project is a tenant. Assignments reference projects by id.
type Project struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;not null;unique"`
	Description string    `gorm:"column:description"`
	Enabled     bool      `gorm:"column:enabled;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Project) TableName() string {
	return "projects"
}
