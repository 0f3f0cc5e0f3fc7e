// Package server exposes a Desktop over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wcatz/launcher-grid/internal/catalog"
	"github.com/wcatz/launcher-grid/internal/config"
	"github.com/wcatz/launcher-grid/internal/desktop"
)

// Options configures a Server.
type Options struct {
	Desktop *desktop.Desktop
	// Catalog resolves app keys posted to /api/items.
	Catalog catalog.Provider
	// ConfigPath enables config reload and preset switching. Optional.
	ConfigPath string
	Config     *config.Config
	Logger     *slog.Logger
}

// Server holds the HTTP server state. Every request runs under one mutex,
// so the desktop sees a single caller at a time.
type Server struct {
	desk    *desktop.Desktop
	apps    catalog.Provider
	cfgPath string
	logger  *slog.Logger

	mu     sync.Mutex
	cfg    *config.Config
	router chi.Router
}

// New creates a new Server.
func New(opts Options) (*Server, error) {
	if opts.Desktop == nil || opts.Catalog == nil {
		return nil, fmt.Errorf("server: Desktop and Catalog are required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		desk:    opts.Desktop,
		apps:    opts.Catalog,
		cfgPath: opts.ConfigPath,
		logger:  opts.Logger,
		cfg:     opts.Config,
		router:  chi.NewRouter(),
	}
	s.registerRoutes()
	return s, nil
}

// Update runs fn with exclusive access to the desktop. Callbacks from
// watchers and the catalog go through it.
func (s *Server) Update(fn func(d *desktop.Desktop)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.desk)
}

// ApplyConfig switches to cfg and moves the desktop to its active grid.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyConfig(cfg)
}

func (s *Server) applyConfig(cfg *config.Config) error {
	g := cfg.GridConfig()
	if err := s.desk.SetGridConfig(desktop.GridSize{Rows: g.Rows, Columns: g.Columns}); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// ReloadConfig reloads the YAML config from disk.
func (s *Server) ReloadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadConfig()
}

func (s *Server) reloadConfig() error {
	if s.cfgPath == "" {
		return errNoConfig
	}
	cfg, err := config.Load(s.cfgPath)
	if err != nil {
		return err
	}
	return s.applyConfig(cfg)
}

var errNoConfig = errors.New("server started without a config file")

// Config returns the current config.
func (s *Server) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// ConfigPath returns the absolute path to the config file.
func (s *Server) ConfigPath() string {
	abs, err := filepath.Abs(s.cfgPath)
	if err != nil {
		return s.cfgPath
	}
	return abs
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("launcher-grid API listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down API")
		return srv.Shutdown(shutdownCtx)
	}
}
