package gorm

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type AssignmentsSuite struct {
	suite.Suite
	DB    *gorm.DB
	mock  sqlmock.Sqlmock
	store *AssignmentsStore
}

func (s *AssignmentsSuite) SetupSuite() {
	var (
		db  *sql.DB
		err error
	)

	db, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	s.DB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(s.T(), err)

	s.store = NewAssignmentsStore(s.DB)
}

func (s *AssignmentsSuite) AfterTest(_, _ string) {
	require.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func TestAssignmentsStore(t *testing.T) {
	suite.Run(t, new(AssignmentsSuite))
}

func (s *AssignmentsSuite) expectHasProject(userID, projectID string, exists bool) {
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(userID, projectID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func (s *AssignmentsSuite) TestGrant() {
	s.mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO user_project_metadata (user_id, project_id, role_id)`)).
		WithArgs("user-1", "proj-1", "role-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.store.Grant("user-1", "proj-1", "role-1")
	assert.NoError(s.T(), err)
}

func (s *AssignmentsSuite) TestRevoke() {
	s.mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM user_project_metadata`)).
		WithArgs("user-1", "proj-1", "role-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.store.Revoke("user-1", "proj-1", "role-1")
	assert.NoError(s.T(), err)
}

func (s *AssignmentsSuite) TestExists() {
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1", "proj-1", "role-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.True(s.T(), s.store.Exists("user-1", "proj-1", "role-1"))
}

func (s *AssignmentsSuite) TestEnsureDefaultCreates() {
	s.expectHasProject("user-1", "proj-1", false)
	s.mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO user_project_metadata (user_id, project_id, role_id)`)).
		WithArgs("user-1", "proj-1", "role-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := s.store.EnsureDefault("user-1", "proj-1", "role-1")
	require.NoError(s.T(), err)
	assert.True(s.T(), created)
}

func (s *AssignmentsSuite) TestEnsureDefaultSkipsWhenAnyRoleHeld() {
	// Any role on the project counts, including one granted manually
	// with a different role id.
	s.expectHasProject("user-1", "proj-1", true)

	created, err := s.store.EnsureDefault("user-1", "proj-1", "role-1")
	require.NoError(s.T(), err)
	assert.False(s.T(), created)
}

func (s *AssignmentsSuite) TestEnsureDefaultLosingRace() {
	// HasProject said no, but the conflict-free insert hit an existing
	// row: the other login won and no new row was created.
	s.expectHasProject("user-1", "proj-1", false)
	s.mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO user_project_metadata (user_id, project_id, role_id)`)).
		WithArgs("user-1", "proj-1", "role-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := s.store.EnsureDefault("user-1", "proj-1", "role-1")
	require.NoError(s.T(), err)
	assert.False(s.T(), created)
}

func (s *AssignmentsSuite) TestListByUser() {
	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT user_id, project_id, role_id, created_at`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "project_id", "role_id"}).
			AddRow("user-1", "proj-1", "role-1").
			AddRow("user-1", "proj-2", "role-1"))

	grants := s.store.ListByUser("user-1")
	require.Len(s.T(), grants, 2)
	assert.Equal(s.T(), "proj-1", grants[0].ProjectID)
}
