package integration

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/config"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/hybrid"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/sqlident"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/endpoints"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/middleware"
	gormstore "github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store/gorm"
)

// portCounter is used to allocate unique ports for each test server
var portCounter int32 = 19000

// directoryStub stands in for the LDAP directory. Scenarios seed it
// with users before authenticating; everything downstream of the bind
// (provisioning, grants, tokens) runs against the real SQL schema.
type directoryStub struct {
	mu        sync.Mutex
	users     map[string]identity.User // keyed by name
	passwords map[string]string
}

func newDirectoryStub() *directoryStub {
	return &directoryStub{
		users:     make(map[string]identity.User),
		passwords: make(map[string]string),
	}
}

// AddUser seeds a directory user with the given id, name and password
func (d *directoryStub) AddUser(id, name, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[name] = identity.User{
		ID:      id,
		Name:    name,
		Enabled: true,
		Backend: identity.BackendLDAP,
	}
	d.passwords[name] = password
}

func (d *directoryStub) BindUser(name, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.passwords[name]
	if !ok || password == "" || password != stored {
		return identity.ErrInvalidCredentials
	}
	return nil
}

func (d *directoryStub) Authenticate(ctx context.Context, userID, password string) (*identity.User, error) {
	user, err := d.GetUser(ctx, userID)
	if err != nil {
		return nil, identity.ErrInvalidCredentials
	}
	if err := d.BindUser(user.Name, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (d *directoryStub) GetUser(_ context.Context, userID string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, user := range d.users {
		if user.ID == userID {
			u := user
			return &u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (d *directoryStub) GetUserByName(_ context.Context, name, _ string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[name]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	u := user
	return &u, nil
}

func (d *directoryStub) ListUsers(_ context.Context, hints identity.Hints) ([]identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var users []identity.User
	for _, user := range d.users {
		if hints.Name != "" && user.Name != hints.Name {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

var _ hybrid.LDAPBackend = (*directoryStub)(nil)

// ServerInstance represents a running in-process server
type ServerInstance struct {
	Server    *server.Server
	Directory *directoryStub
	ServerURL string
	Port      int
	listener  net.Listener
}

// StartServer boots an in-process server on a unique port, wired to
// the given database and a fresh directory stub.
func StartServer(db *gorm.DB) (*ServerInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))

	sessions, err := middleware.NewSessionAuthenticatorFromEnv(func() time.Duration {
		return config.Get().SessionTokenTTL()
	})
	if err != nil {
		return nil, err
	}

	assignments := gormstore.NewAssignmentsStore(db)
	projects := gormstore.NewProjectsStore(db)
	roles := gormstore.NewRolesStore(db)
	healthStore := gormstore.NewHealthStore(db)

	sqlDriver := sqlident.New(db)
	directory := newDirectoryStub()

	driver := hybrid.New(sqlDriver, directory, assignments, projects, roles, config.Get)

	s := server.NewServer(driver, sqlDriver, assignments, projects, roles, healthStore, sessions, db, "127.0.0.1", fmt.Sprintf("%d", port))
	endpoints.RegisterAll(s)

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on port %d: %w", port, err)
	}

	instance := &ServerInstance{
		Server:    s,
		Directory: directory,
		ServerURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:      port,
		listener:  listener,
	}

	go func() {
		_ = s.StartWithListener(listener)
	}()

	if err := waitForServer(instance.ServerURL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return instance, nil
}

// Stop shuts down the server instance
func (si *ServerInstance) Stop() {
	if si.listener != nil {
		_ = si.listener.Close()
	}
}
