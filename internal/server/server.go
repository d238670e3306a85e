// Package server wires routing, rendering, assets, and the development
// reload loop into one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Bishwas-py/fymo/internal/assets"
	"github.com/Bishwas-py/fymo/internal/config"
	"github.com/Bishwas-py/fymo/internal/controller"
	"github.com/Bishwas-py/fymo/internal/logging"
	"github.com/Bishwas-py/fymo/internal/registry"
	"github.com/Bishwas-py/fymo/internal/renderer"
	"github.com/Bishwas-py/fymo/internal/router"
	"github.com/Bishwas-py/fymo/internal/watcher"
	"github.com/Bishwas-py/fymo/internal/websocket"
)

// watchDebounce batches editor save bursts into one reload.
const watchDebounce = 300 * time.Millisecond

// Server serves rendered pages, compiled assets, and, in development, the
// live-reload websocket endpoint.
type Server struct {
	cfg    *config.Config
	root   string
	logger logging.Logger

	routes      *router.Router
	renderer    *renderer.Renderer
	assets      *assets.Manager
	controllers *controller.Registry
	components  *registry.ComponentRegistry
	hub         *websocket.Hub

	mutex        sync.Mutex
	watcher      *watcher.FileWatcher
	httpServer   *http.Server
	shutdownOnce sync.Once
}

// New builds a server for the project at projectRoot. Routes are read from
// the project's fymo.yml.
func New(projectRoot string, cfg *config.Config, logger logging.Logger) (*Server, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}

	routes, err := router.Load(filepath.Join(root, "fymo.yml"))
	if err != nil {
		return nil, fmt.Errorf("loading routes: %w", err)
	}

	assetManager := assets.NewManager(root, cfg.Paths.Static, cfg.Paths.RuntimeBundle)
	controllers := controller.NewRegistry(filepath.Join(root, cfg.Paths.Data))
	components := registry.NewComponentRegistry()

	s := &Server{
		cfg:         cfg,
		root:        root,
		logger:      logger.WithComponent("server"),
		routes:      routes,
		assets:      assetManager,
		controllers: controllers,
		components:  components,
	}
	s.renderer = renderer.New(root, cfg, renderer.Deps{
		Assets:      assetManager,
		Controllers: controllers,
		Components:  components,
		Logger:      logger,
	})
	if cfg.Dev() && cfg.Development.HotReload {
		s.hub = websocket.NewHub(allowedOrigins(cfg), logger)
	}
	return s, nil
}

// Controllers exposes the controller registry so applications can register
// Go controllers before Start.
func (s *Server) Controllers() *controller.Registry {
	return s.controllers
}

// Components exposes the component registry.
func (s *Server) Components() *registry.ComponentRegistry {
	return s.components
}

// Renderer exposes the render pipeline, mainly so callers can reach the
// builder for warm-up and cache inspection.
func (s *Server) Renderer() *renderer.Renderer {
	return s.renderer
}

// Handler assembles the chi route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.recoverer)

	// The reload endpoint hijacks the connection, so it stays outside the
	// request logger's recording writer.
	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}

	r.Group(func(g chi.Router) {
		g.Use(s.requestLogger)
		g.Handle("/assets/*", s.assets)
		for _, route := range s.routes.Routes() {
			g.Get(route.ChiPattern(), s.pageHandler(route))
		}
	})
	r.NotFound(s.requestLogger(http.HandlerFunc(s.notFound)).ServeHTTP)

	return r
}

// pageHandler renders one route per request.
func (s *Server) pageHandler(route *router.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := map[string]string{}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if key == "*" {
					continue
				}
				params[key] = rctx.URLParams.Values[i]
			}
		}

		req := controller.NewRequest(r, params)
		page, err := s.renderer.RenderRoute(r.Context(), route, req)
		if err != nil {
			s.logger.Error(r.Context(), err, "Render failed",
				"path", r.URL.Path,
				"request_id", GetRequestID(r.Context()),
			)
			status, body := s.renderer.ErrorResponse(err)
			writePage(w, status, body)
			return
		}
		writePage(w, http.StatusOK, page)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writePage(w, http.StatusNotFound, s.renderer.NotFoundPage())
}

func writePage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// Start runs the server until ctx is cancelled or Shutdown is called. In
// development it also starts the file watcher and the reload hub.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Dev() {
		s.startDevLoop(ctx)
	}

	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mutex.Lock()
	s.httpServer = httpServer
	s.mutex.Unlock()

	s.logger.Info(ctx, "Server listening",
		"addr", addr,
		"environment", s.cfg.Server.Environment,
		"routes", len(s.routes.Routes()),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// startDevLoop wires the watcher and reload hub. Failures are logged, not
// fatal; the server still serves without live reload.
func (s *Server) startDevLoop(ctx context.Context) {
	if s.hub != nil {
		go s.hub.Run(ctx)
	}

	fw, err := watcher.NewFileWatcher(s.root, watchDebounce, s.logger)
	if err != nil {
		s.logger.Warn(ctx, err, "File watching disabled")
		return
	}
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.Any(watcher.SvelteFilter, watcher.DataFilter))
	fw.AddHandler(s.handleChanges)

	for _, dir := range []string{s.cfg.Paths.Templates, s.cfg.Paths.Data} {
		path := filepath.Join(s.root, dir)
		if _, statErr := os.Stat(path); statErr != nil {
			s.logger.Debug(ctx, "Skipping missing watch directory", "path", path)
			continue
		}
		if addErr := fw.AddRecursive(path); addErr != nil {
			s.logger.Warn(ctx, addErr, "Failed to watch directory", "path", path)
		}
	}

	if err := fw.Start(ctx); err != nil {
		s.logger.Warn(ctx, err, "File watching disabled")
		_ = fw.Stop()
		return
	}
	s.mutex.Lock()
	s.watcher = fw
	s.mutex.Unlock()
}

// handleChanges invalidates cached artifacts for changed templates and
// broadcasts one reload per batch. Data file changes need no invalidation
// since controller data files are read per request.
func (s *Server) handleChanges(events []watcher.ChangeEvent) error {
	ctx := context.Background()
	templates := filepath.Join(s.root, s.cfg.Paths.Templates)

	for _, event := range events {
		rel, err := filepath.Rel(templates, event.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		identity := filepath.ToSlash(rel)
		dropped := s.renderer.Builder().Invalidate(identity, event.Path)

		switch event.Type {
		case watcher.Deleted, watcher.Renamed:
			s.components.Remove(identity)
		default:
			s.components.Touch(identity, event.ModTime)
		}
		s.logger.Debug(ctx, "Component invalidated",
			"identity", identity,
			"change", event.Type.String(),
			"artifacts_dropped", dropped,
		)
	}

	if s.hub != nil {
		s.hub.Broadcast(websocket.Message{Type: "full_reload"})
	}
	return nil
}

// Shutdown gracefully stops the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.mutex.Lock()
		fw := s.watcher
		httpServer := s.httpServer
		s.mutex.Unlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "Stopping watcher failed")
			}
		}
		if httpServer != nil {
			shutdownErr = httpServer.Shutdown(ctx)
		}
	})
	return shutdownErr
}

// allowedOrigins lists the websocket origins accepted by the reload hub:
// the configured host plus the loopback names browsers actually use.
func allowedOrigins(cfg *config.Config) []string {
	port := strconv.Itoa(cfg.Server.Port)
	origins := []string{
		net.JoinHostPort(cfg.Server.Host, port),
		"localhost:" + port,
		"127.0.0.1:" + port,
	}
	return append(origins, cfg.Server.AllowedOrigins...)
}
