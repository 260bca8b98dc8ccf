package endpoints

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
)

// RegisterProjectsEndpoints registers read-only project endpoints
func RegisterProjectsEndpoints(srv *server.Server) {
	projects := srv.Projects

	router := srv.Router.PathPrefix("/v1/projects").Subrouter()
	router.Use(srv.Sessions.Middleware)

	// GET /v1/projects
	router.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"projects": projects.ListProjects(),
		})
	}).Methods("GET")

	// GET /v1/projects/{project_id}
	router.HandleFunc("/{project_id}", func(w http.ResponseWriter, r *http.Request) {
		projectID, err := url.PathUnescape(mux.Vars(r)["project_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		project := projects.GetProject(projectID)
		if project == nil {
			respondWithError(w, http.StatusNotFound, "Project not found")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"project": project})
	}).Methods("GET")
}
