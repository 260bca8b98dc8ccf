package identity

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when a user id or name does not resolve
// in the backend being queried.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when a create collides with an existing
// user name or id.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidCredentials is returned for any authentication failure.
// Backends deliberately collapse the failure cause (unknown user, bad
// password, failed bind) into this one error.
var ErrInvalidCredentials = errors.New("invalid user / password")

// User is the record a driver hands back to callers. Password material
// never appears here; drivers filter it before returning.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DomainID string `json:"domain_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Enabled  bool   `json:"enabled"`

	// DefaultProjectID is the project a login scopes to when the
	// client names none.
	DefaultProjectID string `json:"default_project_id,omitempty"`

	// Backend records which backend the record came from.
	Backend Backend `json:"-"`
}

// Hints carries list filters, in the shape the driver contract
// dictates: an optional exact name match and a result cap.
type Hints struct {
	Name  string
	Limit int
}

// Driver is the read/authenticate surface every identity backend
// implements.
type Driver interface {
	// Authenticate verifies a password for a user id and returns the
	// filtered user record on success.
	Authenticate(ctx context.Context, userID, password string) (*User, error)

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, userID string) (*User, error)

	// GetUserByName retrieves a user by name within a domain.
	GetUserByName(ctx context.Context, name, domainID string) (*User, error)

	// ListUsers lists users matching the hints.
	ListUsers(ctx context.Context, hints Hints) ([]User, error)
}

// Writer is the mutation surface. Only the SQL backend implements it;
// directory users are managed out of band.
type Writer interface {
	CreateUser(ctx context.Context, user *User, password string) (*User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, newPassword string) error
}

// DomainAware is implemented by drivers whose domain handling depends
// on which backend served the last authentication.
type DomainAware interface {
	IsDomainAware() bool
}
