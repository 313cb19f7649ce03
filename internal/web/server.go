// Package web exposes the host directory over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"ipamhosts/internal/config"
	"ipamhosts/internal/hosts"
)

// OwnerDirectory answers whether a user holds global ownership
type OwnerDirectory interface {
	IsGlobalOwner(name string) (bool, error)
}

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	svc        *hosts.Service
	owners     OwnerDirectory
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a new web server. owners may be nil, in which case only
// the configured global owners are recognized.
func NewServer(cfg *config.Config, svc *hosts.Service, owners OwnerDirectory) *Server {
	server := &Server{
		cfg:    cfg,
		svc:    svc,
		owners: owners,
		router: mux.NewRouter(),
	}

	server.setupRoutes()

	return server
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPListen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", s.cfg.HTTPListen).Msg("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	hostsRouter := s.router.PathPrefix("/hosts").Subrouter()
	hostsRouter.Use(s.requireUser)
	hostsRouter.HandleFunc("", s.handleIndex).Methods(http.MethodGet)
	hostsRouter.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	hostsRouter.HandleFunc("/search/", s.handleSearch).Methods(http.MethodGet)
	hostsRouter.HandleFunc("/multiaction", s.handleMultiAction).Methods(http.MethodPost)
	hostsRouter.HandleFunc("/add", s.handleAddForm).Methods(http.MethodGet)
	hostsRouter.HandleFunc("/add", s.handleAdd).Methods(http.MethodPost)
	hostsRouter.HandleFunc("/edit/{mac}", s.handleEditForm).Methods(http.MethodGet)
	hostsRouter.HandleFunc("/edit/{mac}", s.handleEdit).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
