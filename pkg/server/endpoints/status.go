package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
)

// StatusResponse represents the response from the /status endpoint
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatusErrorResponse represents a failed status check
type StatusErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Version is the reported service version
const Version = "0.1.0"

// RegisterStatusEndpoint registers the health endpoint (no auth required)
func RegisterStatusEndpoint(srv *server.Server) {
	healthStore := srv.HealthStore

	// GET /status - liveness plus a database connectivity check
	srv.Router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.Ping(); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, StatusErrorResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{
			Status:  "ok",
			Version: Version,
		})
	}).Methods("GET")
}
