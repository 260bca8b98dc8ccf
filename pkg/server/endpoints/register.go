package endpoints

import (
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	// Registration order matters: gorilla mux matches routes in order,
	// so the public authenticate route and the deeper grants routes
	// register before the broader prefixes.
	RegisterAuthenticateEndpoint(srv)
	RegisterGrantsEndpoints(srv)
	RegisterUsersEndpoints(srv)
	RegisterProjectsEndpoints(srv)
	RegisterRolesEndpoints(srv)
	RegisterStatusEndpoint(srv)
	RegisterWhoamiEndpoint(srv)
}
