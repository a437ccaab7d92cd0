package feed

import "sync"

// ContentCache holds per-item lookup results keyed by the item's path: text
// preview, image references, and whether an image is available. Entries are
// created on first need and retained for the in-memory session; there is no
// eviction. The batch loader runs on multiple goroutines, so access is
// guarded by a lock.
type ContentCache struct {
	mu       sync.RWMutex
	text     map[string]string
	images   map[string][]string
	hasImage map[string]bool
	resolved map[string]struct{}
}

// NewContentCache creates an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{
		text:     make(map[string]string),
		images:   make(map[string][]string),
		hasImage: make(map[string]bool),
		resolved: make(map[string]struct{}),
	}
}

// Contains reports whether the item already has a cache entry. Re-requesting
// a contained path is a no-op for the loader.
func (c *ContentCache) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.resolved[path]
	return ok
}

// SetText stores the item's text preview.
func (c *ContentCache) SetText(path, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text[path] = text
}

// SetImages stores the item's image references.
func (c *ContentCache) SetImages(path string, refs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[path] = refs
	c.hasImage[path] = len(refs) > 0
}

// MarkResolved records that the item was fetched, successfully or not. A
// failed fetch leaves an empty entry rather than a retriable miss.
func (c *ContentCache) MarkResolved(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved[path] = struct{}{}
}

// Text returns the cached preview for the item.
func (c *ContentCache) Text(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.text[path]
	return t, ok
}

// Images returns the cached image references for the item.
func (c *ContentCache) Images(path string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	refs, ok := c.images[path]
	return refs, ok
}

// HasImage reports whether an image is available for the item.
func (c *ContentCache) HasImage(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasImage[path]
}

// Len returns the number of resolved entries.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resolved)
}
