// FilePath: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/strct-org/beeportal/api"
	"github.com/strct-org/beeportal/api/middleware"
	"github.com/strct-org/beeportal/internal/config"
	"github.com/strct-org/beeportal/internal/identity"
	"github.com/strct-org/beeportal/internal/monitoring"
	"github.com/strct-org/beeportal/internal/portalservice"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	portal     *portalservice.PortalService
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Initialize services
	s.monitoring = monitoring.NewService(monitoring.Config{
		PrometheusEndpoint: s.config.Monitoring.PrometheusEndpoint,
		LokiEndpoint:       s.config.Monitoring.LokiEndpoint,
	})
	s.portal = portalservice.New(s.config, s.monitoring)
	if err := s.portal.Validate(); err != nil {
		return fmt.Errorf("portal service validation failed: %w", err)
	}
	s.checkKeycloak()

	// Setup routes
	router := api.NewRouter(s.portal, middleware.KeycloakConfig{
		URL:          s.config.Keycloak.URL,
		Realm:        s.config.Keycloak.Realm,
		ClientID:     s.config.Keycloak.ClientID,
		ClientSecret: s.config.Keycloak.ClientSecret,
	})
	s.setupHandlers(router)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      cors(router),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// checkKeycloak surfaces misconfigured Keycloak credentials at startup
// instead of on the first authenticated request.
func (s *Server) checkKeycloak() {
	account := identity.NewServiceAccount(s.config.Keycloak)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := account.Token(ctx); err != nil {
		nuts.L.Warnf("[Server] Keycloak service account check failed: %v", err)
		return
	}
	nuts.L.Infof("[Server] Keycloak service account verified")
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	s.portal.Shutdown()

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// setupHandlers attaches the health and metrics handlers the router serves
// on its public routes.
func (s *Server) setupHandlers(router *api.Router) {
	router.SetHealthCheck(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	})
	router.SetMetrics(s.handleMetrics())
}

// handleMetrics exposes the in-process event counters.
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(s.monitoring.Counters())
	}
}
