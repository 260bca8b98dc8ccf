package endpoints_test

import (
	"context"
	"time"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/endpoints"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/middleware"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store"
)

type fakeDriver struct {
	users     map[string]*identity.User
	passwords map[string]string
	writes    []string
	createErr error
}

func (f *fakeDriver) Authenticate(_ context.Context, userID, password string) (*identity.User, error) {
	if password == "" {
		return nil, identity.ErrInvalidCredentials
	}
	u, ok := f.users[userID]
	if !ok || f.passwords[userID] != password {
		return nil, identity.ErrInvalidCredentials
	}
	copied := *u
	return &copied, nil
}

func (f *fakeDriver) GetUser(_ context.Context, userID string) (*identity.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeDriver) GetUserByName(_ context.Context, name, _ string) (*identity.User, error) {
	for _, u := range f.users {
		if u.Name == name {
			copied := *u
			return &copied, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeDriver) ListUsers(_ context.Context, hints identity.Hints) ([]identity.User, error) {
	var users []identity.User
	for _, u := range f.users {
		if hints.Name != "" && u.Name != hints.Name {
			continue
		}
		users = append(users, *u)
	}
	if hints.Limit > 0 && len(users) > hints.Limit {
		users = users[:hints.Limit]
	}
	return users, nil
}

func (f *fakeDriver) CreateUser(_ context.Context, user *identity.User, password string) (*identity.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range f.users {
		if u.Name == user.Name {
			return nil, identity.ErrUserExists
		}
	}
	user.ID = "id-" + user.Name
	f.users[user.ID] = user
	if password != "" {
		f.passwords[user.ID] = password
	}
	f.writes = append(f.writes, "create:"+user.ID)
	return user, nil
}

func (f *fakeDriver) UpdateUser(_ context.Context, user *identity.User) (*identity.User, error) {
	if _, ok := f.users[user.ID]; !ok {
		return nil, identity.ErrUserNotFound
	}
	f.users[user.ID] = user
	f.writes = append(f.writes, "update:"+user.ID)
	return user, nil
}

func (f *fakeDriver) DeleteUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return identity.ErrUserNotFound
	}
	delete(f.users, userID)
	f.writes = append(f.writes, "delete:"+userID)
	return nil
}

func (f *fakeDriver) ChangePassword(_ context.Context, userID, password string) error {
	if _, ok := f.users[userID]; !ok {
		return identity.ErrUserNotFound
	}
	f.passwords[userID] = password
	f.writes = append(f.writes, "password:"+userID)
	return nil
}

type fakeAssignments struct {
	grants map[string]store.Assignment
}

func grantKey(userID, projectID, roleID string) string {
	return userID + "/" + projectID + "/" + roleID
}

func (f *fakeAssignments) Grant(userID, projectID, roleID string) error {
	f.grants[grantKey(userID, projectID, roleID)] = store.Assignment{
		UserID: userID, ProjectID: projectID, RoleID: roleID,
	}
	return nil
}

func (f *fakeAssignments) Revoke(userID, projectID, roleID string) error {
	delete(f.grants, grantKey(userID, projectID, roleID))
	return nil
}

func (f *fakeAssignments) Exists(userID, projectID, roleID string) bool {
	_, ok := f.grants[grantKey(userID, projectID, roleID)]
	return ok
}

func (f *fakeAssignments) HasProject(userID, projectID string) bool {
	for _, a := range f.grants {
		if a.UserID == userID && a.ProjectID == projectID {
			return true
		}
	}
	return false
}

func (f *fakeAssignments) ListByUser(userID string) []store.Assignment {
	var out []store.Assignment
	for _, a := range f.grants {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeAssignments) ListByProject(projectID string) []store.Assignment {
	var out []store.Assignment
	for _, a := range f.grants {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeAssignments) EnsureDefault(userID, projectID, roleID string) (bool, error) {
	if f.HasProject(userID, projectID) {
		return false, nil
	}
	return true, f.Grant(userID, projectID, roleID)
}

type fakeProjects struct {
	projects []store.Project
}

func (f *fakeProjects) GetProject(projectID string) *store.Project {
	for i := range f.projects {
		if f.projects[i].ID == projectID {
			return &f.projects[i]
		}
	}
	return nil
}

func (f *fakeProjects) GetProjectByName(name string) *store.Project {
	for i := range f.projects {
		if f.projects[i].Name == name {
			return &f.projects[i]
		}
	}
	return nil
}

func (f *fakeProjects) ListProjects() []store.Project { return f.projects }

type fakeRoles struct {
	roles []store.Role
}

func (f *fakeRoles) GetRole(roleID string) *store.Role {
	for i := range f.roles {
		if f.roles[i].ID == roleID {
			return &f.roles[i]
		}
	}
	return nil
}

func (f *fakeRoles) GetRoleByName(name string) *store.Role {
	for i := range f.roles {
		if f.roles[i].Name == name {
			return &f.roles[i]
		}
	}
	return nil
}

func (f *fakeRoles) ListRoles() []store.Role { return f.roles }

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Ping() error { return f.err }

type fixture struct {
	srv         *server.Server
	driver      *fakeDriver
	assignments *fakeAssignments
	health      *fakeHealth
	sessions    *middleware.SessionAuthenticator
}

func newFixture() *fixture {
	driver := &fakeDriver{
		users: map[string]*identity.User{
			"user-1": {ID: "user-1", Name: "alice", DomainID: "default", Enabled: true, Backend: identity.BackendSQL},
		},
		passwords: map[string]string{"user-1": "alice-password"},
	}
	assignments := &fakeAssignments{grants: map[string]store.Assignment{}}
	projects := &fakeProjects{projects: []store.Project{
		{ID: "proj-1", Name: "demo", Enabled: true},
	}}
	roles := &fakeRoles{roles: []store.Role{
		{ID: "role-1", Name: "_member_"},
	}}
	health := &fakeHealth{}
	sessions := middleware.NewSessionAuthenticator([]byte("test-session-key"), func() time.Duration {
		return time.Hour
	})

	srv := server.NewServer(driver, driver, assignments, projects, roles, health, sessions, nil, "localhost", "0")
	endpoints.RegisterAll(srv)

	return &fixture{
		srv:         srv,
		driver:      driver,
		assignments: assignments,
		health:      health,
		sessions:    sessions,
	}
}

func (f *fixture) token(userID string) string {
	token, _, _ := f.sessions.Issue(userID)
	return token
}
