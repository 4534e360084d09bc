// Package cache provides the two-tier content cache shared by the weft
// composition engine: file content keyed by path with modification-time
// invalidation, and remote content/JSON keyed by URL with a time-to-live.
//
// This is a correctness cache that avoids redundant I/O, not a bounded memory
// cache: there is no eviction beyond Clear. Entries are idempotent
// re-derivations of their source, so concurrent builds sharing one Manager
// can at worst overwrite an entry with an equivalent one.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weftdev/weft/internal/errors"
)

const (
	// DefaultTTL is how long remote entries stay fresh.
	DefaultTTL = 300 * time.Second
	// DefaultTimeout bounds each remote request.
	DefaultTimeout = 30 * time.Second

	// JSON entries are cached under a separate key space so a URL fetched
	// both as raw text and as data never aliases.
	dataKeyPrefix = "data:"
)

type fileEntry struct {
	content string
	mtime   time.Time
}

type remoteEntry struct {
	text      string
	value     interface{}
	fetchedAt time.Time
}

// Stats reports cache entry counts and hit/miss counters.
type Stats struct {
	FileEntries   int   `json:"file_entries"`
	RemoteEntries int   `json:"remote_entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
}

// Manager owns both cache tiers. It is safe for concurrent use.
type Manager struct {
	mutex   sync.RWMutex
	files   map[string]*fileEntry
	remotes map[string]*remoteEntry

	ttl     time.Duration
	client  *http.Client
	enabled bool

	hits   int64
	misses int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the remote-entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) { m.client.Timeout = timeout }
}

// WithHTTPClient replaces the HTTP client used for remote fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) { m.client = client }
}

// Disabled turns caching off; every call performs I/O.
func Disabled() Option {
	return func(m *Manager) { m.enabled = false }
}

// New creates a cache manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		files:   make(map[string]*fileEntry),
		remotes: make(map[string]*remoteEntry),
		ttl:     DefaultTTL,
		client:  &http.Client{Timeout: DefaultTimeout},
		enabled: true,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// File returns the content of path, reloading from disk only when the on-disk
// modification time exceeds the cached timestamp.
func (m *Manager) File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	if m.enabled {
		m.mutex.RLock()
		entry, ok := m.files[path]
		m.mutex.RUnlock()

		if ok && !entry.mtime.Before(info.ModTime()) {
			atomic.AddInt64(&m.hits, 1)
			return entry.content, nil
		}
	}

	atomic.AddInt64(&m.misses, 1)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := string(data)

	if m.enabled {
		m.mutex.Lock()
		m.files[path] = &fileEntry{content: content, mtime: info.ModTime()}
		m.mutex.Unlock()
	}

	return content, nil
}

// Remote returns the body of url as text, refetching only once the cached
// entry is older than the TTL.
func (m *Manager) Remote(ctx context.Context, url string) (string, error) {
	if entry, ok := m.freshEntry(url); ok {
		return entry.text, nil
	}

	atomic.AddInt64(&m.misses, 1)

	body, err := m.fetch(ctx, url)
	if err != nil {
		return "", errors.NewFetchError(url, err)
	}

	m.store(url, &remoteEntry{text: body, fetchedAt: time.Now()})

	return body, nil
}

// RemoteJSON returns the decoded JSON body of url, cached under a key space
// separate from Remote's raw text entries.
func (m *Manager) RemoteJSON(ctx context.Context, url string) (interface{}, error) {
	key := dataKeyPrefix + url
	if entry, ok := m.freshEntry(key); ok {
		return entry.value, nil
	}

	atomic.AddInt64(&m.misses, 1)

	body, err := m.fetch(ctx, url)
	if err != nil {
		return nil, errors.NewFetchError(url, err)
	}

	var value interface{}
	if err := json.Unmarshal([]byte(body), &value); err != nil {
		return nil, errors.NewFetchError(url, fmt.Errorf("decoding JSON: %w", err))
	}

	m.store(key, &remoteEntry{value: value, fetchedAt: time.Now()})

	return value, nil
}

// Clear empties both tiers and resets the counters.
func (m *Manager) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.files = make(map[string]*fileEntry)
	m.remotes = make(map[string]*remoteEntry)
	atomic.StoreInt64(&m.hits, 0)
	atomic.StoreInt64(&m.misses, 0)
}

// Stats reports entry counts for both tiers.
func (m *Manager) Stats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return Stats{
		FileEntries:   len(m.files),
		RemoteEntries: len(m.remotes),
		Hits:          atomic.LoadInt64(&m.hits),
		Misses:        atomic.LoadInt64(&m.misses),
	}
}

func (m *Manager) freshEntry(key string) (*remoteEntry, bool) {
	if !m.enabled {
		return nil, false
	}

	m.mutex.RLock()
	entry, ok := m.remotes[key]
	m.mutex.RUnlock()

	if ok && time.Since(entry.fetchedAt) < m.ttl {
		atomic.AddInt64(&m.hits, 1)
		return entry, true
	}

	return nil, false
}

func (m *Manager) store(key string, entry *remoteEntry) {
	if !m.enabled {
		return
	}

	m.mutex.Lock()
	m.remotes[key] = entry
	m.mutex.Unlock()
}

func (m *Manager) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
