package ldapident

import (
	"context"
	"fmt"
	"net"

	"github.com/go-ldap/ldap/v3"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/config"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
)

// Conn is the subset of *ldap.Conn the driver uses. Tests substitute a
// fake through the dialer.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a connection to the directory
type Dialer func(cfg config.LDAPConfig) (Conn, error)

// DialURL is the default dialer. It honors the configured timeout and
// upgrades the connection with StartTLS when requested.
func DialURL(cfg config.LDAPConfig) (Conn, error) {
	conn, err := ldap.DialURL(cfg.URL, ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout()}))
	if err != nil {
		return nil, fmt.Errorf("ldap dial failed: %w", err)
	}
	conn.SetTimeout(cfg.Timeout())

	if cfg.UseStartTLS {
		if err := conn.StartTLS(nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ldap starttls failed: %w", err)
		}
	}
	return conn, nil
}

// Ensure Driver implements the identity contract
var _ identity.Driver = (*Driver)(nil)

// Driver is the read-only LDAP identity backend. Authentication is a
// bind as the user's own DN; lookups use the configured service bind.
type Driver struct {
	cfg  func() config.LDAPConfig
	dial Dialer
}

// New creates a new LDAP identity driver. cfg is called per operation
// so configuration reloads take effect without reconstruction.
func New(cfg func() config.LDAPConfig, dial Dialer) *Driver {
	if dial == nil {
		dial = DialURL
	}
	return &Driver{cfg: cfg, dial: dial}
}

// UserDN derives the DN for a user name from the id attribute and the
// user tree.
func (d *Driver) UserDN(name string) string {
	cfg := d.cfg()
	return fmt.Sprintf("%s=%s,%s", cfg.UserIDAttribute, ldap.EscapeDN(name), cfg.UserTreeDN)
}

// Authenticate binds as the user derived from userID. The directory
// checks the password during the bind.
func (d *Driver) Authenticate(ctx context.Context, userID, password string) (*identity.User, error) {
	if password == "" {
		return nil, identity.ErrInvalidCredentials
	}
	if err := d.BindUser(userID, password); err != nil {
		return nil, err
	}

	// Best effort: fetch the full entry with the service bind. The
	// bind already proved the password, so a failed lookup degrades to
	// a minimal record instead of failing the login.
	user, err := d.GetUser(ctx, userID)
	if err != nil {
		return &identity.User{
			ID:      userID,
			Name:    userID,
			Enabled: true,
			Backend: identity.BackendLDAP,
		}, nil
	}
	return user, nil
}

// BindUser performs the end-user bind that verifies a password
func (d *Driver) BindUser(name, password string) error {
	conn, err := d.dial(d.cfg())
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Bind(d.UserDN(name), password); err != nil {
		return identity.ErrInvalidCredentials
	}
	return nil
}

// GetUser retrieves a user entry by the id attribute
func (d *Driver) GetUser(ctx context.Context, userID string) (*identity.User, error) {
	cfg := d.cfg()
	return d.searchOne(fmt.Sprintf("(&(objectClass=%s)(%s=%s))",
		ldap.EscapeFilter(cfg.UserObjectClass),
		cfg.UserIDAttribute,
		ldap.EscapeFilter(userID)))
}

// GetUserByName retrieves a user entry by the name attribute. The
// directory has no domain notion; domainID is ignored.
func (d *Driver) GetUserByName(ctx context.Context, name, domainID string) (*identity.User, error) {
	cfg := d.cfg()
	return d.searchOne(fmt.Sprintf("(&(objectClass=%s)(%s=%s))",
		ldap.EscapeFilter(cfg.UserObjectClass),
		cfg.UserNameAttribute,
		ldap.EscapeFilter(name)))
}

// ListUsers lists directory users matching the hints
func (d *Driver) ListUsers(ctx context.Context, hints identity.Hints) ([]identity.User, error) {
	cfg := d.cfg()
	filter := fmt.Sprintf("(objectClass=%s)", ldap.EscapeFilter(cfg.UserObjectClass))
	if hints.Name != "" {
		filter = fmt.Sprintf("(&(objectClass=%s)(%s=%s))",
			ldap.EscapeFilter(cfg.UserObjectClass),
			cfg.UserNameAttribute,
			ldap.EscapeFilter(hints.Name))
	}

	result, err := d.search(filter, hints.Limit)
	if err != nil {
		return nil, err
	}

	users := make([]identity.User, 0, len(result.Entries))
	for _, entry := range result.Entries {
		users = append(users, *d.entryToUser(entry))
	}
	return users, nil
}

func (d *Driver) searchOne(filter string) (*identity.User, error) {
	result, err := d.search(filter, 1)
	if err != nil {
		return nil, err
	}
	if len(result.Entries) == 0 {
		return nil, identity.ErrUserNotFound
	}
	return d.entryToUser(result.Entries[0]), nil
}

func (d *Driver) search(filter string, sizeLimit int) (*ldap.SearchResult, error) {
	cfg := d.cfg()

	conn, err := d.dial(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("ldap service bind failed: %w", err)
		}
	}

	scope := ldap.ScopeWholeSubtree
	if cfg.QueryScope == "one" {
		scope = ldap.ScopeSingleLevel
	}

	req := ldap.NewSearchRequest(
		cfg.UserTreeDN,
		scope,
		ldap.NeverDerefAliases,
		sizeLimit,
		cfg.TimeoutSeconds,
		false,
		filter,
		[]string{cfg.UserIDAttribute, cfg.UserNameAttribute, cfg.UserMailAttribute},
		nil,
	)

	result, err := conn.Search(req)
	if err != nil {
		// A size-limit-exceeded result still carries the entries we
		// asked for.
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("ldap search failed: %w", err)
	}
	return result, nil
}

func (d *Driver) entryToUser(entry *ldap.Entry) *identity.User {
	cfg := d.cfg()

	user := &identity.User{
		ID:      entry.GetAttributeValue(cfg.UserIDAttribute),
		Name:    entry.GetAttributeValue(cfg.UserNameAttribute),
		Email:   entry.GetAttributeValue(cfg.UserMailAttribute),
		Enabled: true,
		Backend: identity.BackendLDAP,
	}
	if user.Name == "" {
		user.Name = user.ID
	}
	return user
}
