package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
)

// CreateUserRequest is the body for POST /v1/users
type CreateUserRequest struct {
	Name             string `json:"name"`
	Password         string `json:"password,omitempty"`
	Email            string `json:"email,omitempty"`
	DomainID         string `json:"domain_id,omitempty"`
	DefaultProjectID string `json:"default_project_id,omitempty"`
}

// UpdateUserRequest is the body for PATCH /v1/users/{user_id}
type UpdateUserRequest struct {
	Name             *string `json:"name,omitempty"`
	Email            *string `json:"email,omitempty"`
	Enabled          *bool   `json:"enabled,omitempty"`
	DefaultProjectID *string `json:"default_project_id,omitempty"`
}

// ChangePasswordRequest is the body for PUT /v1/users/{user_id}/password
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// RegisterUsersEndpoints registers user CRUD endpoints. All of them
// require a session token; the authenticate endpoint registers first
// on the parent router and stays public.
func RegisterUsersEndpoints(srv *server.Server) {
	driver := srv.Driver
	writer := srv.Writer

	router := srv.Router.PathPrefix("/v1/users").Subrouter()
	router.Use(srv.Sessions.Middleware)

	// GET /v1/users - list users, optional ?name= and ?limit=
	router.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		hints := identity.Hints{Name: r.URL.Query().Get("name")}
		if limit := r.URL.Query().Get("limit"); limit != "" {
			n, err := strconv.Atoi(limit)
			if err != nil || n < 0 {
				respondWithError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			hints.Limit = n
		}

		users, err := driver.ListUsers(r.Context(), hints)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to list users")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"users": users})
	}).Methods("GET")

	// POST /v1/users - create a local user. An empty password creates a
	// directory-backed record whose logins go to LDAP.
	router.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		var body CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		defer r.Body.Close()

		if body.Name == "" {
			respondWithError(w, http.StatusBadRequest, "name is required")
			return
		}

		user := &identity.User{
			Name:             body.Name,
			Email:            body.Email,
			DomainID:         body.DomainID,
			DefaultProjectID: body.DefaultProjectID,
			Enabled:          true,
		}
		created, err := writer.CreateUser(r.Context(), user, body.Password)
		if err != nil {
			if errors.Is(err, identity.ErrUserExists) {
				respondWithError(w, http.StatusConflict, "User already exists")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{"user": created})
	}).Methods("POST")

	// GET /v1/users/{user_id}
	router.HandleFunc("/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		userID, err := url.PathUnescape(mux.Vars(r)["user_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
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
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"user": user})
	}).Methods("GET")

	// PATCH /v1/users/{user_id}
	router.HandleFunc("/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		userID, err := url.PathUnescape(mux.Vars(r)["user_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		defer r.Body.Close()

		user, err := driver.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				respondWithError(w, http.StatusNotFound, "User not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to get user")
			return
		}

		if body.Name != nil {
			user.Name = *body.Name
		}
		if body.Email != nil {
			user.Email = *body.Email
		}
		if body.Enabled != nil {
			user.Enabled = *body.Enabled
		}
		if body.DefaultProjectID != nil {
			user.DefaultProjectID = *body.DefaultProjectID
		}

		updated, err := writer.UpdateUser(r.Context(), user)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"user": updated})
	}).Methods("PATCH")

	// DELETE /v1/users/{user_id} - removes the user and its role assignments
	router.HandleFunc("/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		userID, err := url.PathUnescape(mux.Vars(r)["user_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := writer.DeleteUser(r.Context(), userID); err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				respondWithError(w, http.StatusNotFound, "User not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to delete user")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")

	// PUT /v1/users/{user_id}/password - set a local password. Setting
	// one converts a directory-backed record into a local user.
	router.HandleFunc("/{user_id}/password", func(w http.ResponseWriter, r *http.Request) {
		userID, err := url.PathUnescape(mux.Vars(r)["user_id"])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		defer r.Body.Close()

		if body.Password == "" {
			respondWithError(w, http.StatusBadRequest, "password is required")
			return
		}

		if err := writer.ChangePassword(r.Context(), userID, body.Password); err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				respondWithError(w, http.StatusNotFound, "User not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to change password")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("PUT")
}
