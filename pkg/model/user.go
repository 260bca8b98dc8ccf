package model

import "time"

// User is an identity row. Local users carry a bcrypt hash; directory
// users have a row without one, and their logins bind against LDAP.
type User struct {
	ID       string `gorm:"column:id;primaryKey"`
	Name     string `gorm:"column:name;not null"`
	DomainID string `gorm:"column:domain_id;not null;default:default"`
	Email    string `gorm:"column:email"`
	Enabled  bool   `gorm:"column:enabled;not null;default:true"`

	// Password is the bcrypt hash, or empty for users that
	// authenticate against the directory.
	Password string `gorm:"column:password"`

	DefaultProjectID string    `gorm:"column:default_project_id"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
