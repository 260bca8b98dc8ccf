package sqlident

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/model"
)

// DefaultDomainID is used when a caller names no domain.
const DefaultDomainID = "default"

// Ensure Driver implements the identity contract
var (
	_ identity.Driver = (*Driver)(nil)
	_ identity.Writer = (*Driver)(nil)
)

// Driver is the SQL identity backend on top of GORM
type Driver struct {
	db *gorm.DB
}

// New creates a new SQL identity driver
func New(db *gorm.DB) *Driver {
	return &Driver{db: db}
}

// Authenticate verifies a password against the stored bcrypt hash
func (d *Driver) Authenticate(ctx context.Context, userID, password string) (*identity.User, error) {
	if password == "" {
		return nil, identity.ErrInvalidCredentials
	}

	user, hash, err := d.LookupWithPassword(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	// A record without a hash cannot authenticate here; it belongs to
	// the directory.
	if hash == "" {
		return nil, identity.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, identity.ErrInvalidCredentials
	}

	return user, nil
}

// LookupWithPassword retrieves a user along with its stored password
// hash. The hybrid driver uses the hash's presence to decide whether a
// login is local or belongs to the directory.
func (d *Driver) LookupWithPassword(ctx context.Context, userID string) (*identity.User, string, error) {
	var user model.User
	tx := d.db.WithContext(ctx).Where(&model.User{ID: userID}).First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, "", identity.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("user lookup failed: %w", tx.Error)
	}
	return filterUser(&user), user.Password, nil
}

// GetUser retrieves a user by id
func (d *Driver) GetUser(ctx context.Context, userID string) (*identity.User, error) {
	user, _, err := d.LookupWithPassword(ctx, userID)
	return user, err
}

// GetUserByName retrieves a user by name within a domain
func (d *Driver) GetUserByName(ctx context.Context, name, domainID string) (*identity.User, error) {
	if domainID == "" {
		domainID = DefaultDomainID
	}

	var user model.User
	tx := d.db.WithContext(ctx).Where(&model.User{Name: name, DomainID: domainID}).First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup failed: %w", tx.Error)
	}
	return filterUser(&user), nil
}

// ListUsers lists users matching the hints, ordered by name
func (d *Driver) ListUsers(ctx context.Context, hints identity.Hints) ([]identity.User, error) {
	query := d.db.WithContext(ctx).Model(&model.User{}).Order("name")
	if hints.Name != "" {
		query = query.Where("name = ?", hints.Name)
	}
	if hints.Limit > 0 {
		query = query.Limit(hints.Limit)
	}

	var rows []model.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("user listing failed: %w", err)
	}

	users := make([]identity.User, 0, len(rows))
	for i := range rows {
		users = append(users, *filterUser(&rows[i]))
	}
	return users, nil
}

// CreateUser creates a user. An empty password is allowed and marks
// the record as directory-backed.
func (d *Driver) CreateUser(ctx context.Context, user *identity.User, password string) (*identity.User, error) {
	if user.Name == "" {
		return nil, fmt.Errorf("user name is required")
	}

	row := model.User{
		ID:               user.ID,
		Name:             user.Name,
		DomainID:         user.DomainID,
		Email:            user.Email,
		Enabled:          user.Enabled,
		DefaultProjectID: user.DefaultProjectID,
	}
	if row.ID == "" {
		row.ID = newID()
	}
	if row.DomainID == "" {
		row.DomainID = DefaultDomainID
	}
	if password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}
		row.Password = hash
	}

	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, identity.ErrUserExists
		}
		return nil, fmt.Errorf("user create failed: %w", err)
	}
	return filterUser(&row), nil
}

// isUniqueViolation recognizes a postgres unique constraint error
// (SQLSTATE 23505) from the driver's error text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "SQLSTATE 23505")
}

// UpdateUser updates mutable fields of a user
func (d *Driver) UpdateUser(ctx context.Context, user *identity.User) (*identity.User, error) {
	updates := map[string]interface{}{
		"name":               user.Name,
		"email":              user.Email,
		"enabled":            user.Enabled,
		"default_project_id": user.DefaultProjectID,
	}
	tx := d.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("user update failed: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, identity.ErrUserNotFound
	}
	return d.GetUser(ctx, user.ID)
}

// DeleteUser deletes a user and its role assignments
func (d *Driver) DeleteUser(ctx context.Context, userID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", userID).Delete(&model.User{})
		if res.Error != nil {
			return fmt.Errorf("user delete failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return identity.ErrUserNotFound
		}
		return tx.Where("user_id = ?", userID).Delete(&model.Assignment{}).Error
	})
}

// ChangePassword replaces the stored password hash
func (d *Driver) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("new password is required")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	tx := d.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("password", hash)
	if tx.Error != nil {
		return fmt.Errorf("password update failed: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// filterUser converts a row to the driver contract's user record,
// dropping the password hash.
func filterUser(row *model.User) *identity.User {
	return &identity.User{
		ID:               row.ID,
		Name:             row.Name,
		DomainID:         row.DomainID,
		Email:            row.Email,
		Enabled:          row.Enabled,
		DefaultProjectID: row.DefaultProjectID,
		Backend:          identity.BackendSQL,
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
