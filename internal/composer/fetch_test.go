package composer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftdev/weft/internal/cache"
)

func fetchFixtureServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/frag":
			_, _ = w.Write([]byte("<span>frag</span>"))
		case "/data":
			_, _ = w.Write([]byte(`{"n": 1}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchers(t *testing.T) {
	srv := fetchFixtureServer()
	defer srv.Close()

	reqs := []fetchRequest{
		{typ: fetchText, name: "widget", url: srv.URL + "/frag"},
		{typ: fetchJSON, name: "stats", url: srv.URL + "/data"},
		{typ: fetchText, name: "broken", url: srv.URL + "/missing"},
	}

	strategies := map[string]fetcher{
		"sequential": &sequentialFetcher{caches: cache.New()},
		"concurrent": &concurrentFetcher{caches: cache.New()},
	}

	for name, strategy := range strategies {
		t.Run(name, func(t *testing.T) {
			results := strategy.fetchAll(context.Background(), reqs)
			require.Len(t, results, len(reqs))

			// Results line up with requests by index.
			require.NoError(t, results[0].err)
			assert.Equal(t, "<span>frag</span>", results[0].text)

			require.NoError(t, results[1].err)
			data, ok := results[1].value.(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, float64(1), data["n"])

			// A failed fetch is confined to its own slot.
			assert.Error(t, results[2].err)
		})
	}
}

func TestConcurrentFetcher_ManyRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<i>%s</i>", r.URL.Path)
	}))
	defer srv.Close()

	var reqs []fetchRequest
	for i := 0; i < 32; i++ {
		reqs = append(reqs, fetchRequest{typ: fetchText, url: fmt.Sprintf("%s/%d", srv.URL, i)})
	}

	f := &concurrentFetcher{caches: cache.New()}
	results := f.fetchAll(context.Background(), reqs)

	require.Len(t, results, 32)
	for i, res := range results {
		require.NoError(t, res.err)
		assert.Equal(t, fmt.Sprintf("<i>/%d</i>", i), res.text)
	}
}

func TestFetchers_EmptyBatch(t *testing.T) {
	assert.Empty(t, (&sequentialFetcher{caches: cache.New()}).fetchAll(context.Background(), nil))
	assert.Empty(t, (&concurrentFetcher{caches: cache.New()}).fetchAll(context.Background(), nil))
}
