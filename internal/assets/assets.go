// Package assets handles model file lookup and caching.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Faultbox/daerig/internal/engine/model"
	"github.com/Faultbox/daerig/pkg/collada"
)

// ErrNotFound is returned when no search root holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Manager resolves asset names against an ordered set of search roots.
type Manager struct {
	roots []fs.FS
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddRoot adds a search root to the manager.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(root fs.FS) {
	m.mu.Lock()
	m.roots = append(m.roots, root)
	m.mu.Unlock()
}

// AddDir adds a directory on disk as a search root.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding search path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding search path %s: not a directory", dir)
	}
	m.AddRoot(os.DirFS(dir))
	return nil
}

// Load returns the contents of the named asset. Names are slash separated and
// relative to a search root. Names no root holds are read directly from disk.
func (m *Manager) Load(name string) ([]byte, error) {
	key := normalize(name)

	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	data, err := m.read(name, key)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, data)
	return data, nil
}

func (m *Manager) read(name, key string) ([]byte, error) {
	if fs.ValidPath(key) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		for i := len(m.roots) - 1; i >= 0; i-- {
			data, err := fs.ReadFile(m.roots[i], key)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
		}
	}

	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// LoadModel loads and assembles a COLLADA model. The model is named after the
// file without its extension.
func (m *Manager) LoadModel(name string, opts collada.Options) (*model.Model, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}

	base := path.Base(filepath.ToSlash(name))
	mdl, err := model.Load(bytes.NewReader(data), strings.TrimSuffix(base, path.Ext(base)), opts)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", name, err)
	}
	return mdl, nil
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops all roots and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.cache.Clear()
}

func normalize(name string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "./")
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
