package server

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/middleware"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/server/store"
)

type Server struct {
	Driver      identity.Driver
	Writer      identity.Writer
	Assignments store.AssignmentsStore
	Projects    store.ProjectsStore
	Roles       store.RolesStore
	HealthStore store.HealthStore
	Sessions    *middleware.SessionAuthenticator
	Router      *mux.Router
	DB          *gorm.DB
	srv         *http.Server
}

func NewServer(
	driver identity.Driver,
	writer identity.Writer,
	assignments store.AssignmentsStore,
	projects store.ProjectsStore,
	roles store.RolesStore,
	healthStore store.HealthStore,
	sessions *middleware.SessionAuthenticator,
	db *gorm.DB,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Driver:      driver,
		Writer:      writer,
		Assignments: assignments,
		Projects:    projects,
		Roles:       roles,
		HealthStore: healthStore,
		Sessions:    sessions,
		Router:      router,
		DB:          db,
		srv:         srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}

// StartWithListener serves on an existing listener. Used by tests that
// need to pick the port before the server starts.
func (s Server) StartWithListener(l net.Listener) error {
	return s.srv.Serve(l)
}
