// Package doccache is a read-through, no-eviction cache of file contents
// keyed by canonical path, used to assemble pinned-document system prompts
// (spec §4.7) without re-reading the filesystem on every request.
package doccache

import (
	"os"
	"strings"
	"sync"

	"github.com/nextlevelbuilder/ikigai/internal/id"
)

// PathResolver translates an ik:// URI (or a plain path) to the
// filesystem path it refers to. The terminal front-end owns the full
// `ik://` scheme; the cache only needs this one translation.
type PathResolver interface {
	Resolve(path string) (string, error)
}

// DefaultResolver strips an "ik://" prefix relative to dataDir and passes
// everything else through unchanged.
type DefaultResolver struct {
	DataDir string
}

func (r DefaultResolver) Resolve(path string) (string, error) {
	if strings.HasPrefix(path, "ik://") {
		rel := strings.TrimPrefix(path, "ik://")
		return r.DataDir + "/" + rel, nil
	}
	return path, nil
}

// Cache is a read-through cache from canonical path to file content.
type Cache struct {
	resolver PathResolver

	mu      sync.Mutex
	entries []entry
}

type entry struct {
	path    string
	content string
}

func New(resolver PathResolver) *Cache {
	return &Cache{resolver: resolver}
}

// Get returns the cached content for path, reading through to the
// filesystem on a miss.
func (c *Cache) Get(path string) (string, error) {
	canonical, err := c.resolver.Resolve(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.path == canonical {
			return e.content, nil
		}
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		return "", id.Wrap(id.KindIO, err, "read %s", canonical)
	}

	c.entries = append(c.entries, entry{path: canonical, content: string(data)})
	return string(data), nil
}

// Invalidate drops the cached entry for path, if present.
func (c *Cache) Invalidate(path string) {
	canonical, err := c.resolver.Resolve(path)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.path == canonical {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Clear drops all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
