// Package server implements the weft development server. It serves the
// frontend tree, routes page requests through the composition engine when a
// descriptor exists, and pushes live-reload notifications over a websocket
// whenever the watcher reports a change.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/weftdev/weft/internal/composer"
	"github.com/weftdev/weft/internal/config"
	wefterrors "github.com/weftdev/weft/internal/errors"
	"github.com/weftdev/weft/internal/logging"
)

// Query parameters consumed by the server itself rather than passed through
// as override data.
var reservedParams = map[string]struct{}{
	"data":       {},
	"build":      {},
	"concurrent": {},
}

// Server is the weft dev server.
type Server struct {
	cfg     *config.Config
	builder *composer.Builder
	logger  logging.Logger
	httpSrv *http.Server
	hub     *reloadHub
	titler  cases.Caser
}

// New creates a dev server around an existing builder.
func New(cfg *config.Config, builder *composer.Builder, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Server{
		cfg:     cfg,
		builder: builder,
		logger:  logger.WithComponent("server"),
		hub:     newReloadHub(logger),
		titler:  cases.Title(language.English),
	}
}

// Start listens on the configured address until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.handleWebSocket)
	mux.HandleFunc("/api/cache/stats", s.handleCacheStats)
	mux.HandleFunc("/api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("/", s.handleRequest)

	s.httpSrv = &http.Server{
		Addr:    s.cfg.Address(),
		Handler: noCacheMiddleware(mux),
	}

	go func() {
		<-ctx.Done()
		s.hub.closeAll()
		_ = s.httpSrv.Shutdown(context.Background())
	}()

	s.logger.Info(ctx, "dev server listening", "address", s.cfg.Address())

	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// NotifyChange clears the engine caches and broadcasts a reload. Wired to the
// file watcher by cmd/serve.
func (s *Server) NotifyChange(paths []string) {
	s.builder.ClearCache()
	s.logger.Info(context.Background(), "cache cleared after change", "files", len(paths))
	s.hub.broadcast(`{"type":"full_reload"}`)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	templatePath, ok := s.routeTemplate(r.URL.Path)
	if !ok {
		// Not a page route; serve the file straight from the frontend tree.
		http.FileServer(http.Dir(s.cfg.Frontend.BasePath)).ServeHTTP(w, r)
		return
	}

	override := overrideData(r)

	build := s.builder.Build
	if s.cfg.Build.Concurrent || r.URL.Query().Get("concurrent") == "true" {
		build = s.builder.BuildConcurrent
	}

	markup, err := build(r.Context(), templatePath, override)
	if err != nil {
		if wefterrors.IsTemplateNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error(r.Context(), err, "build failed", "template", templatePath)
		http.Error(w, fmt.Sprintf("building %s: %v", templatePath, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(markup))
}

// routeTemplate maps a request path onto a composable template path. Direct
// page template paths pass through; bare names like /login map to
// pages/Login/html/Login.html; the root serves the configured default page.
func (s *Server) routeTemplate(urlPath string) (string, bool) {
	path := strings.Trim(urlPath, "/")

	if strings.HasPrefix(path, "pages/") && strings.HasSuffix(path, ".html") {
		return path, true
	}

	if strings.ContainsRune(path, '.') {
		return "", false
	}
	for _, prefix := range []string{"assets/", "css/", "js/", "components/", "static/"} {
		if strings.HasPrefix(path, prefix) {
			return "", false
		}
	}

	pageName := s.cfg.Server.DefaultPage
	if path != "" {
		pageName = s.titler.String(path)
	}

	return fmt.Sprintf("pages/%s/html/%s.html", pageName, pageName), true
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.builder.CacheStats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.builder.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// overrideData turns query parameters into caller-supplied override data: a
// `data` parameter holding JSON is merged first, then individual parameters,
// skipping the ones the server consumes itself.
func overrideData(r *http.Request) map[string]interface{} {
	override := make(map[string]interface{})

	query := r.URL.Query()
	if raw := query.Get("data"); raw != "" {
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			for k, v := range parsed {
				override[k] = v
			}
		}
	}

	for key, values := range query {
		if _, reserved := reservedParams[key]; reserved {
			continue
		}
		if len(values) > 0 {
			override[key] = values[0]
		}
	}

	return override
}

// noCacheMiddleware disables browser caching during development.
func noCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
