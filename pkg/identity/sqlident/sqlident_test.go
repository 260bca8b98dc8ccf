package sqlident

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
)

type Suite struct {
	suite.Suite
	DB     *gorm.DB
	mock   sqlmock.Sqlmock
	driver *Driver
}

func (s *Suite) SetupSuite() {
	var (
		db  *sql.DB
		err error
	)

	db, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	s.DB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(s.T(), err)

	s.driver = New(s.DB)
}

func (s *Suite) AfterTest(_, _ string) {
	require.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func TestSQLDriver(t *testing.T) {
	suite.Run(t, new(Suite))
}

var userColumns = []string{
	"id", "name", "domain_id", "email", "enabled", "password", "default_project_id",
}

func mustHash(t assert.TestingT, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func (s *Suite) expectLookup(userID string, rows *sqlmock.Rows) {
	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT 1`)).
		WithArgs(userID).
		WillReturnRows(rows)
}

func (s *Suite) TestAuthenticateLocalUser() {
	hash := mustHash(s.T(), "secret")
	s.expectLookup("user-1", sqlmock.NewRows(userColumns).
		AddRow("user-1", "alice", "default", "alice@example.com", true, hash, ""))

	user, err := s.driver.Authenticate(context.Background(), "user-1", "secret")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", user.Name)
	assert.Equal(s.T(), identity.BackendSQL, user.Backend)
}

func (s *Suite) TestAuthenticateBadPassword() {
	hash := mustHash(s.T(), "secret")
	s.expectLookup("user-1", sqlmock.NewRows(userColumns).
		AddRow("user-1", "alice", "default", "", true, hash, ""))

	_, err := s.driver.Authenticate(context.Background(), "user-1", "wrong")
	assert.ErrorIs(s.T(), err, identity.ErrInvalidCredentials)
}

func (s *Suite) TestAuthenticateDirectoryRecord() {
	// A record without a hash never authenticates locally.
	s.expectLookup("user-1", sqlmock.NewRows(userColumns).
		AddRow("user-1", "alice", "default", "", true, "", ""))

	_, err := s.driver.Authenticate(context.Background(), "user-1", "secret")
	assert.ErrorIs(s.T(), err, identity.ErrInvalidCredentials)
}

func (s *Suite) TestAuthenticateEmptyPassword() {
	_, err := s.driver.Authenticate(context.Background(), "user-1", "")
	assert.ErrorIs(s.T(), err, identity.ErrInvalidCredentials)
}

func (s *Suite) TestAuthenticateUnknownUser() {
	s.expectLookup("nobody", sqlmock.NewRows(userColumns))

	_, err := s.driver.Authenticate(context.Background(), "nobody", "secret")
	assert.ErrorIs(s.T(), err, identity.ErrInvalidCredentials)
}

func (s *Suite) TestLookupWithPasswordFiltersUser() {
	hash := mustHash(s.T(), "secret")
	s.expectLookup("user-1", sqlmock.NewRows(userColumns).
		AddRow("user-1", "alice", "default", "alice@example.com", true, hash, "proj-1"))

	user, gotHash, err := s.driver.LookupWithPassword(context.Background(), "user-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), hash, gotHash)
	assert.Equal(s.T(), "proj-1", user.DefaultProjectID)
}

func (s *Suite) TestGetUserNotFound() {
	s.expectLookup("nobody", sqlmock.NewRows(userColumns))

	_, err := s.driver.GetUser(context.Background(), "nobody")
	assert.ErrorIs(s.T(), err, identity.ErrUserNotFound)
}

func (s *Suite) TestGetUserByNameDefaultsDomain() {
	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "users" WHERE "users"."name" = $1 AND "users"."domain_id" = $2 ORDER BY "users"."id" LIMIT 1`)).
		WithArgs("alice", "default").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user-1", "alice", "default", "", true, "", ""))

	user, err := s.driver.GetUserByName(context.Background(), "alice", "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "user-1", user.ID)
}

func (s *Suite) TestListUsers() {
	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "users" ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user-1", "alice", "default", "", true, "hash", "").
			AddRow("user-2", "bob", "default", "", true, "", ""))

	users, err := s.driver.ListUsers(context.Background(), identity.Hints{})
	require.NoError(s.T(), err)
	require.Len(s.T(), users, 2)
	// Hashes never leave the driver.
	for _, u := range users {
		assert.Equal(s.T(), identity.BackendSQL, u.Backend)
	}
}

func (s *Suite) TestListUsersWithNameFilter() {
	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "users" WHERE name = $1 ORDER BY name`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("user-1", "alice", "default", "", true, "", ""))

	users, err := s.driver.ListUsers(context.Background(), identity.Hints{Name: "alice"})
	require.NoError(s.T(), err)
	require.Len(s.T(), users, 1)
	assert.Equal(s.T(), "alice", users[0].Name)
}

func (s *Suite) TestUpdateUserNotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "users" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	_, err := s.driver.UpdateUser(context.Background(), &identity.User{ID: "nobody", Name: "x"})
	assert.ErrorIs(s.T(), err, identity.ErrUserNotFound)
}

func (s *Suite) TestChangePassword() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "users" SET "password"=$1 WHERE id = $2`)).
		WithArgs(sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.driver.ChangePassword(context.Background(), "user-1", "new-password")
	assert.NoError(s.T(), err)
}

func (s *Suite) TestChangePasswordEmpty() {
	err := s.driver.ChangePassword(context.Background(), "user-1", "")
	assert.Error(s.T(), err)
}

func (s *Suite) TestDeleteUserRemovesAssignments() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM "users" WHERE id = $1`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM "user_project_metadata" WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectCommit()

	err := s.driver.DeleteUser(context.Background(), "user-1")
	assert.NoError(s.T(), err)
}

func (s *Suite) TestDeleteUserNotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM "users" WHERE id = $1`)).
		WithArgs("nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	err := s.driver.DeleteUser(context.Background(), "nobody")
	assert.ErrorIs(s.T(), err, identity.ErrUserNotFound)
}

func TestNewIDHasNoDashes(t *testing.T) {
	id := newID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
}

func TestIsUniqueViolation(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq style", errors.New(`pq: duplicate key value violates unique constraint "users_pkey"`), true},
		{"sqlstate style", errors.New("ERROR: some constraint failed (SQLSTATE 23505)"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isUniqueViolation(tc.err))
		})
	}
}
