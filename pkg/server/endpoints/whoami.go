package endpoints

import (
	"errors"
	"net/http"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/middleware"
)

// WhoamiResponse represents the response from the /whoami endpoint
type WhoamiResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	DomainID string `json:"domain_id,omitempty"`
}

// RegisterWhoamiEndpoint registers the /whoami endpoint
func RegisterWhoamiEndpoint(srv *server.Server) {
	driver := srv.Driver

	whoamiRouter := srv.Router.PathPrefix("/whoami").Subrouter()
	whoamiRouter.Use(srv.Sessions.Middleware)

	whoamiRouter.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unable to determine identity")
			return
		}

		user, err := driver.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				respondWithError(w, http.StatusNotFound, "User not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to get user")
			return
		}

		respondWithJSON(w, http.StatusOK, WhoamiResponse{
			UserID:   user.ID,
			Username: user.Name,
			DomainID: user.DomainID,
		})
	}).Methods("GET")
}
