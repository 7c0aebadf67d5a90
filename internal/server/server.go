// Package server exposes model generation, modification and download
// over HTTP.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/procgen3d/internal/config"
	"github.com/Faultbox/procgen3d/internal/generate"
	"github.com/Faultbox/procgen3d/internal/logger"
	"github.com/Faultbox/procgen3d/internal/store"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Options wires a Server to its collaborators.
type Options struct {
	Config    config.ServerConfig
	Store     *store.Store
	Provider  generate.Provider
	Extractor generate.Extractor
	Logger    *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg       config.ServerConfig
	store     *store.Store
	provider  generate.Provider
	extractor generate.Extractor
	log       *zap.Logger
}

// New creates a server. Provider defaults to the builtin cube and
// Extractor to group-derived modifiers.
func New(opts Options) *Server {
	s := &Server{
		cfg:       opts.Config,
		store:     opts.Store,
		provider:  opts.Provider,
		extractor: opts.Extractor,
		log:       opts.Logger,
	}
	if s.provider == nil {
		s.provider = generate.Builtin{}
	}
	if s.extractor == nil {
		s.extractor = generate.GroupExtractor{}
	}
	if s.log == nil {
		s.log = logger.Named("server")
	}
	return s
}

// Router returns the bare route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/generate", s.handle(s.handleGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/modify", s.handle(s.handleModify)).Methods(http.MethodPost)
	api.HandleFunc("/download/{id}", s.handle(s.handleDownload)).Methods(http.MethodGet)
	api.HandleFunc("/cache/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/cache/{id}", s.handleDelete).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.log, http.StatusNotFound, "Not found", r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.log, http.StatusMethodNotAllowed, "Method not allowed", r.Method)
	})
	return r
}

// Handler returns the router wrapped with panic recovery, CORS and
// access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()

	h = handlers.CORS(
		handlers.AllowedOrigins(s.cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(log.New(logger.StdWriter("http"), "", 0)),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.LoggingHandler(logger.StdWriter("http"), h)
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		ErrorLog:     zap.NewStdLog(s.log),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
