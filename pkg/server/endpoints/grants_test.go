package endpoints_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store"
)

func TestGrantRole(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("PUT", "/v1/projects/proj-1/users/user-1/roles/role-1", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.assignments.Exists("user-1", "proj-1", "role-1"))
}

func TestGrantRoleUnknownProject(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("PUT", "/v1/projects/missing/users/user-1/roles/role-1", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrantRoleUnknownRole(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("PUT", "/v1/projects/proj-1/users/user-1/roles/missing", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevokeRole(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.assignments.Grant("user-1", "proj-1", "role-1"))

	req := httptest.NewRequest("DELETE", "/v1/projects/proj-1/users/user-1/roles/role-1", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.assignments.Exists("user-1", "proj-1", "role-1"))
}

func TestRevokeMissingRole(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("DELETE", "/v1/projects/proj-1/users/user-1/roles/role-1", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckGrant(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.assignments.Grant("user-1", "proj-1", "role-1"))

	req := httptest.NewRequest("HEAD", "/v1/projects/proj-1/users/user-1/roles/role-1", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest("HEAD", "/v1/projects/proj-1/users/user-1/roles/other", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec = httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListGrants(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.assignments.Grant("user-1", "proj-1", "role-1"))
	require.NoError(t, f.assignments.Grant("user-1", "proj-2", "role-1"))

	req := httptest.NewRequest("GET", "/v1/projects/proj-1/users/user-1/roles", nil)
	req.Header.Set("Authorization", "Bearer "+f.token("user-1"))
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Roles []store.Assignment `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Roles, 1)
	assert.Equal(t, "proj-1", resp.Roles[0].ProjectID)
}

func TestGrantRequiresAuth(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("PUT", "/v1/projects/proj-1/users/user-1/roles/role-1", nil)
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
