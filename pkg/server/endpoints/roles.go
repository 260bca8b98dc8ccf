package endpoints

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
)

// RegisterRolesEndpoints registers read-only role endpoints
func RegisterRolesEndpoints(srv *server.Server) {
	roles := srv.Roles

	router := srv.Router.PathPrefix("/v1/roles").Subrouter()
	router.Use(srv.Sessions.Middleware)

	// GET /v1/roles
	router.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"roles": roles.ListRoles(),
		})
	}).Methods("GET")

	// GET /v1/roles/{role_id}
	router.HandleFunc("/{role_id}", func(w http.ResponseWriter, r *http.Request) {
		roleID, err := url.PathUnescape(mux.Vars(r)["role_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		role := roles.GetRole(roleID)
		if role == nil {
			respondWithError(w, http.StatusNotFound, "Role not found")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"role": role})
	}).Methods("GET")
}
