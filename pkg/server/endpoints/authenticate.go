package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/audit"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
)

// AuthenticateRequest carries the password for a login attempt
type AuthenticateRequest struct {
	Password string `json:"password"`
}

// AuthenticateResponse is returned on a successful login
type AuthenticateResponse struct {
	User      *identity.User `json:"user"`
	Token     string         `json:"token,omitempty"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
}

// RegisterAuthenticateEndpoint registers the login endpoint. It is the
// only unauthenticated endpoint besides /status.
func RegisterAuthenticateEndpoint(srv *server.Server) {
	driver := srv.Driver
	sessions := srv.Sessions

	// POST /v1/users/{user_id}/authenticate - verify a password, returns the user and a session token
	srv.Router.HandleFunc(
		"/v1/users/{user_id}/authenticate",
		func(writer http.ResponseWriter, request *http.Request) {
			vars := mux.Vars(request)
			userID, err := url.PathUnescape(vars["user_id"])
			if err != nil {
				respondWithError(writer, http.StatusBadRequest, err.Error())
				return
			}

			var body AuthenticateRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				respondWithError(writer, http.StatusBadRequest, "invalid request body")
				return
			}
			defer request.Body.Close()

			ip := clientIP(request)

			user, err := driver.Authenticate(request.Context(), userID, body.Password)
			if err != nil {
				audit.Log(audit.AuthenticateEvent{
					UserID:       userID,
					ClientIP:     ip,
					Success:      false,
					ErrorMessage: err.Error(),
				})
				if errors.Is(err, identity.ErrInvalidCredentials) {
					respondWithError(writer, http.StatusUnauthorized, "Invalid credentials")
					return
				}
				respondWithError(writer, http.StatusInternalServerError, "Authentication failed")
				return
			}

			audit.Log(audit.AuthenticateEvent{
				UserID:   userID,
				ClientIP: ip,
				Backend:  user.Backend.String(),
				Success:  true,
			})

			response := AuthenticateResponse{User: user}
			if sessions != nil {
				token, expiresAt, err := sessions.Issue(user.ID)
				if err != nil {
					respondWithError(writer, http.StatusInternalServerError, "Failed to issue token")
					return
				}
				response.Token = token
				response.ExpiresAt = expiresAt
			}

			respondWithJSON(writer, http.StatusOK, response)
		},
	).Methods("POST")
}
