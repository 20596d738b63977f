// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/strct-org/beeportal/api/middleware"
	"github.com/strct-org/beeportal/api/resources"
	"github.com/strct-org/beeportal/internal/portalservice"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	resources *resources.Resources
}

func NewRouter(svc *portalservice.PortalService, keycloakConfig middleware.KeycloakConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewKeycloakMiddleware(keycloakConfig),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes. The handlers are attached after construction, so the
	// closures resolve them at request time.
	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		r.resources.HealthCheck(w, req)
	}).Methods(http.MethodGet)
	api.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		r.resources.Metrics(w, req)
	}).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Session and profile
	protected.HandleFunc("/session", r.resources.Users.GetSession).Methods(http.MethodGet)
	protected.HandleFunc("/session", r.resources.Users.SignOut).Methods(http.MethodDelete)
	protected.HandleFunc("/user", r.resources.Users.CreateUser).Methods(http.MethodPost)
	protected.HandleFunc("/user", r.resources.Users.DeleteUser).Methods(http.MethodDelete)
	protected.HandleFunc("/user/refresh", r.resources.Users.RefreshUser).Methods(http.MethodPost)

	// Devices
	devices := protected.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	devices.HandleFunc("/refresh", r.resources.Devices.RefreshDevices).Methods(http.MethodPost)
	devices.HandleFunc("/claim", r.resources.Devices.ClaimDevice).Methods(http.MethodPost)
	devices.HandleFunc("/live", r.resources.Devices.LiveStats).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", r.resources.Devices.RenameDevice).Methods(http.MethodPut)
	devices.HandleFunc("/{id}", r.resources.Devices.UnlinkDevice).Methods(http.MethodDelete)

	// Device filesystem
	devices.HandleFunc("/{id}/files", r.resources.Files.ListFiles).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/files/mkdir", r.resources.Files.Mkdir).Methods(http.MethodPost)
	devices.HandleFunc("/{id}/files/delete", r.resources.Files.Delete).Methods(http.MethodPost)
	devices.HandleFunc("/{id}/files/upload", r.resources.Files.Upload).Methods(http.MethodPost)
	devices.HandleFunc("/{id}/files/download", r.resources.Files.Download).Methods(http.MethodGet)

	// Network health
	devices.HandleFunc("/{id}/network", r.resources.Network.GetStats).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/network/speedtest", r.resources.Network.RunSpeedtest).Methods(http.MethodPost)

	// Reports
	devices.HandleFunc("/{id}/reports/network", r.resources.Reports.NetworkReport).Methods(http.MethodGet)
}

// SetHealthCheck sets the health check handler
func (r *Router) SetHealthCheck(h func(w http.ResponseWriter, req *http.Request)) {
	r.resources.SetHealthCheck(h)
}

// SetMetrics sets the metrics handler
func (r *Router) SetMetrics(h func(w http.ResponseWriter, req *http.Request)) {
	r.resources.SetMetrics(h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
