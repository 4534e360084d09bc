package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftdev/weft/internal/cache"
	"github.com/weftdev/weft/internal/composer"
	"github.com/weftdev/weft/internal/config"
	"github.com/weftdev/weft/internal/logging"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	base := t.TempDir()

	cfg := &config.Config{
		Frontend: config.FrontendConfig{BasePath: base},
		Server:   config.ServerConfig{Host: "localhost", Port: 0, DefaultPage: "Welcome"},
	}
	builder := composer.New(composer.Options{BasePath: base, Caches: cache.New()})

	return New(cfg, builder, logging.NewNop()), base
}

func writeFixture(t *testing.T, base, rel, content string) {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRouteTemplate(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name     string
		urlPath  string
		expected string
		routed   bool
	}{
		{"root serves default page", "/", "pages/Welcome/html/Welcome.html", true},
		{"bare name is title-cased", "/login", "pages/Login/html/Login.html", true},
		{"direct page path passes through", "/pages/Home/html/Home.html", "pages/Home/html/Home.html", true},
		{"asset path is not routed", "/css/globals.css", "", false},
		{"component path is not routed", "/components/Forms/html/login.html", "", false},
		{"static prefix is not routed", "/static/logo.svg", "", false},
		{"dotted path is not routed", "/favicon.ico", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, routed := s.routeTemplate(tt.urlPath)
			assert.Equal(t, tt.routed, routed)
			assert.Equal(t, tt.expected, path)
		})
	}
}

func TestOverrideData(t *testing.T) {
	t.Run("data JSON then individual params", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, `/login?data={"title":"From JSON","theme":"dark"}&title=From+Param&concurrent=true`, nil)

		override := overrideData(r)

		// Individual parameters win over the JSON blob; reserved parameters
		// never leak into the data.
		assert.Equal(t, "From Param", override["title"])
		assert.Equal(t, "dark", override["theme"])
		assert.NotContains(t, override, "concurrent")
		assert.NotContains(t, override, "data")
	})

	t.Run("no parameters", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/login", nil)
		assert.Empty(t, overrideData(r))
	})
}

func TestHandleRequest(t *testing.T) {
	s, base := newTestServer(t)
	writeFixture(t, base, "pages/Welcome/html/Welcome.html", "<h1>Hello {{name}}!</h1>")
	writeFixture(t, base, "pages/Welcome/Welcome.descriptor", "defaultData:\n  name: World\n")
	writeFixture(t, base, "css/site.css", "body {}")

	t.Run("composes the default page", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleRequest(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>Hello World!</h1>")
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	})

	t.Run("query overrides win", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleRequest(w, httptest.NewRequest(http.MethodGet, "/welcome?name=Go", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>Hello Go!</h1>")
	})

	t.Run("concurrent build via query flag", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleRequest(w, httptest.NewRequest(http.MethodGet, "/welcome?concurrent=true", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>Hello World!</h1>")
	})

	t.Run("missing page is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleRequest(w, httptest.NewRequest(http.MethodGet, "/nosuchpage", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-page paths serve files", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleRequest(w, httptest.NewRequest(http.MethodGet, "/css/site.css", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "body {}", w.Body.String())
	})
}

func TestCacheEndpoints(t *testing.T) {
	s, base := newTestServer(t)
	writeFixture(t, base, "pages/Welcome/html/Welcome.html", "<h1>hi</h1>")

	// Prime the cache.
	w := httptest.NewRecorder()
	s.handleRequest(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleCacheStats(w, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var stats cache.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Greater(t, stats.FileEntries, 0)
	})

	t.Run("clear requires POST", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleCacheClear(w, httptest.NewRequest(http.MethodGet, "/api/cache/clear", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleCacheClear(w, httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 0, s.builder.CacheStats().FileEntries)
	})
}

func TestNoCacheMiddleware(t *testing.T) {
	handler := noCacheMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, w.Header().Get("Cache-Control"), "no-cache")
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
}

func TestReloadHub(t *testing.T) {
	hub := newReloadHub(logging.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.handleWebSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for the server side to register the client.
	require.Eventually(t, func() bool {
		hub.mutex.Lock()
		defer hub.mutex.Unlock()
		return len(hub.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.broadcast(`{"type":"full_reload"}`)

	msgType, payload, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, msgType)
	assert.JSONEq(t, `{"type":"full_reload"}`, string(payload))

	hub.closeAll()
}
