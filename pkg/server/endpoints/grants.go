package endpoints

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/audit"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/middleware"
)

// RegisterGrantsEndpoints registers role assignment endpoints keyed by
// (project, user). Grants are stored in SQL regardless of which
// backend owns the user, so directory users can hold roles without a
// local password.
func RegisterGrantsEndpoints(srv *server.Server) {
	assignments := srv.Assignments
	projects := srv.Projects
	roles := srv.Roles

	router := srv.Router.PathPrefix("/v1/projects/{project_id}/users/{user_id}/roles").Subrouter()
	router.Use(srv.Sessions.Middleware)

	type grantVars struct {
		projectID string
		userID    string
		roleID    string
	}

	parseVars := func(w http.ResponseWriter, r *http.Request) (grantVars, bool) {
		vars := mux.Vars(r)
		var parsed grantVars
		var err error
		if parsed.projectID, err = url.PathUnescape(vars["project_id"]); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return parsed, false
		}
		if parsed.userID, err = url.PathUnescape(vars["user_id"]); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return parsed, false
		}
		if parsed.roleID, err = url.PathUnescape(vars["role_id"]); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return parsed, false
		}
		return parsed, true
	}

	// GET /v1/projects/{project_id}/users/{user_id}/roles - list grants
	router.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		vars, ok := parseVars(w, r)
		if !ok {
			return
		}

		var grants []interface{}
		for _, a := range assignments.ListByUser(vars.userID) {
			if a.ProjectID == vars.projectID {
				grants = append(grants, a)
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"roles": grants})
	}).Methods("GET")

	// HEAD /v1/projects/{project_id}/users/{user_id}/roles/{role_id} - check a grant
	router.HandleFunc("/{role_id}", func(w http.ResponseWriter, r *http.Request) {
		vars, ok := parseVars(w, r)
		if !ok {
			return
		}

		if !assignments.Exists(vars.userID, vars.projectID, vars.roleID) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("HEAD")

	// PUT /v1/projects/{project_id}/users/{user_id}/roles/{role_id} - grant a role
	router.HandleFunc("/{role_id}", func(w http.ResponseWriter, r *http.Request) {
		vars, ok := parseVars(w, r)
		if !ok {
			return
		}
		actorID, _ := middleware.UserID(r.Context())

		if projects.GetProject(vars.projectID) == nil {
			respondWithError(w, http.StatusNotFound, "Project not found")
			return
		}
		if roles.GetRole(vars.roleID) == nil {
			respondWithError(w, http.StatusNotFound, "Role not found")
			return
		}

		event := audit.GrantEvent{
			ActorID:   actorID,
			UserID:    vars.userID,
			ProjectID: vars.projectID,
			RoleID:    vars.roleID,
			ClientIP:  clientIP(r),
		}
		if err := assignments.Grant(vars.userID, vars.projectID, vars.roleID); err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithError(w, http.StatusInternalServerError, "Failed to grant role")
			return
		}
		event.Success = true
		audit.Log(event)
		w.WriteHeader(http.StatusNoContent)
	}).Methods("PUT")

	// DELETE /v1/projects/{project_id}/users/{user_id}/roles/{role_id} - revoke a role
	router.HandleFunc("/{role_id}", func(w http.ResponseWriter, r *http.Request) {
		vars, ok := parseVars(w, r)
		if !ok {
			return
		}
		actorID, _ := middleware.UserID(r.Context())

		if !assignments.Exists(vars.userID, vars.projectID, vars.roleID) {
			respondWithError(w, http.StatusNotFound, "Role assignment not found")
			return
		}

		event := audit.GrantEvent{
			ActorID:   actorID,
			UserID:    vars.userID,
			ProjectID: vars.projectID,
			RoleID:    vars.roleID,
			ClientIP:  clientIP(r),
			Revoke:    true,
		}
		if err := assignments.Revoke(vars.userID, vars.projectID, vars.roleID); err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			respondWithError(w, http.StatusInternalServerError, "Failed to revoke role")
			return
		}
		event.Success = true
		audit.Log(event)
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")
}
