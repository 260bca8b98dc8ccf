package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/audit"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/config"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store"
)

// SQLBackend is the local surface the hybrid driver needs. The lookup
// exposes the stored hash so the hybrid can tell local users from
// directory users without a second query.
type SQLBackend interface {
	identity.Driver
	LookupWithPassword(ctx context.Context, userID string) (*identity.User, string, error)
}

// LDAPBackend is the directory surface the hybrid driver needs: a
// user bind plus read-only lookups.
type LDAPBackend interface {
	identity.Driver
	BindUser(name, password string) error
}

// Provisioner reports first logins so the default project/role
// assignment can be published outside the process. Optional.
type Provisioner interface {
	Provisioned(ctx context.Context, userID, projectID, roleID string)
}

// Ensure Driver implements the identity contract
var (
	_ identity.Driver      = (*Driver)(nil)
	_ identity.DomainAware = (*Driver)(nil)
)

// Driver composes the SQL and LDAP backends.
//
// Authentication is SQL-first: the user record must exist in SQL, and
// a record carrying a password hash is verified locally. A record
// without one belongs to the directory and is verified by binding as
// the user. Reads are served from SQL; get-by-name falls back to the
// directory; role grants are always written to SQL keyed by the
// directory-provided user id.
type Driver struct {
	sql  SQLBackend
	ldap LDAPBackend

	assignments store.AssignmentsStore
	projects    store.ProjectsStore
	roles       store.RolesStore

	cfg func() *config.HybridConfig

	notifier Provisioner

	// domainAware is true except for exactly one read after a
	// successful LDAP authentication.
	mu          sync.Mutex
	domainAware bool
}

// New creates the hybrid driver. cfg is called per operation so
// configuration reloads take effect immediately.
func New(
	sql SQLBackend,
	ldap LDAPBackend,
	assignments store.AssignmentsStore,
	projects store.ProjectsStore,
	roles store.RolesStore,
	cfg func() *config.HybridConfig,
) *Driver {
	return &Driver{
		sql:         sql,
		ldap:        ldap,
		assignments: assignments,
		projects:    projects,
		roles:       roles,
		cfg:         cfg,
		domainAware: true,
	}
}

// SetNotifier attaches an optional provisioning notifier
func (d *Driver) SetNotifier(n Provisioner) {
	d.notifier = n
}

// Authenticate verifies a password for a user id.
//
// The record is looked up in SQL. A stored hash means a local check; a
// missing hash means the user belongs to the directory and the
// password is checked by binding as the user's name. On a successful
// directory login the default project/role assignment is provisioned
// if absent.
func (d *Driver) Authenticate(ctx context.Context, userID, password string) (*identity.User, error) {
	if password == "" {
		return nil, identity.ErrInvalidCredentials
	}

	user, hash, err := d.sql.LookupWithPassword(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if hash != "" {
		// Local user: the SQL backend checks the hash.
		if _, err := d.sql.Authenticate(ctx, userID, password); err != nil {
			return nil, err
		}
		log.Printf("authenticated user %s with SQL", userID)
		return user, nil
	}

	// No hash: the directory checks the password during the bind.
	if err := d.ldap.BindUser(user.Name, password); err != nil {
		return nil, identity.ErrInvalidCredentials
	}
	log.Printf("authenticated user %s with LDAP", userID)

	d.mu.Lock()
	d.domainAware = false
	d.mu.Unlock()

	d.ensureDefaultAssignment(ctx, userID)

	user.Backend = identity.BackendLDAP
	return user, nil
}

// IsDomainAware reports false exactly once after an LDAP-backed
// authentication, then reverts to true. The host reads the result of
// an authenticate as not domain aware for LDAP users; every later
// operation runs against the SQL database and is domain aware.
func (d *Driver) IsDomainAware() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	domainAware := d.domainAware
	if !d.domainAware {
		d.domainAware = true
	}
	return domainAware
}

// GetUser retrieves a user by id from SQL. Directory lookups are
// deliberately skipped; the hybrid relies on local records for ids.
func (d *Driver) GetUser(ctx context.Context, userID string) (*identity.User, error) {
	return d.sql.GetUser(ctx, userID)
}

// GetUserByName retrieves a user by name: SQL first, directory fallback
func (d *Driver) GetUserByName(ctx context.Context, name, domainID string) (*identity.User, error) {
	user, err := d.sql.GetUserByName(ctx, name, domainID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, identity.ErrUserNotFound) {
		return nil, err
	}
	return d.ldap.GetUserByName(ctx, name, domainID)
}

// ListUsers lists SQL users, merging directory users when configured
func (d *Driver) ListUsers(ctx context.Context, hints identity.Hints) ([]identity.User, error) {
	users, err := d.sql.ListUsers(ctx, hints)
	if err != nil {
		return nil, err
	}
	if !d.cfg().ListLDAPUsers {
		return users, nil
	}

	ldapUsers, err := d.ldap.ListUsers(ctx, hints)
	if err != nil {
		return nil, fmt.Errorf("ldap user listing failed: %w", err)
	}

	// SQL records win on id collisions.
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		seen[u.ID] = true
	}
	for _, u := range ldapUsers {
		if !seen[u.ID] {
			users = append(users, u)
		}
	}
	if hints.Limit > 0 && len(users) > hints.Limit {
		users = users[:hints.Limit]
	}
	return users, nil
}

// ensureDefaultAssignment creates the configured default project/role
// assignment for a directory user if the user has no role on the
// default project yet. Provisioning failures never fail the login; the
// bind already succeeded.
func (d *Driver) ensureDefaultAssignment(ctx context.Context, userID string) {
	cfg := d.cfg()
	if !cfg.ProvisioningEnabled() {
		return
	}

	project := d.projects.GetProjectByName(cfg.DefaultProject)
	if project == nil {
		log.Printf("default project %q not found; skipping provisioning for %s", cfg.DefaultProject, userID)
		return
	}
	role := d.roles.GetRoleByName(cfg.DefaultRole)
	if role == nil {
		log.Printf("default role %q not found; skipping provisioning for %s", cfg.DefaultRole, userID)
		return
	}

	created, err := d.assignments.EnsureDefault(userID, project.ID, role.ID)
	if err != nil {
		log.Printf("failed to provision default assignment for %s: %v", userID, err)
		audit.Log(audit.ProvisionEvent{
			UserID:       userID,
			ProjectID:    project.ID,
			RoleID:       role.ID,
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return
	}
	if !created {
		return
	}

	audit.Log(audit.ProvisionEvent{
		UserID:    userID,
		ProjectID: project.ID,
		RoleID:    role.ID,
		Success:   true,
	})
	if d.notifier != nil {
		d.notifier.Provisioned(ctx, userID, project.ID, role.ID)
	}
}
