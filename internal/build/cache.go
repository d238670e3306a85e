package build

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Artifact is one immutable compiled unit, uniquely determined by
// (identity, target, fingerprint). Artifacts are never mutated after they
// enter the cache; a changed source produces a new generation under a new
// fingerprint.
type Artifact struct {
	Identity    string
	Target      Target
	Fingerprint string
	// Name is the component constructor name, e.g. "Index".
	Name string
	// Filename is the project-relative path used for the identity marker.
	Filename string
	// Code is the prepared module text.
	Code string
	// Style is the extracted component CSS, possibly empty.
	Style string
}

type artifactKey struct {
	identity    string
	target      Target
	fingerprint string
}

func (k artifactKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.identity, k.target, k.fingerprint)
}

// CacheStats reports cache effectiveness counters.
type CacheStats struct {
	Hits     int64
	Misses   int64
	Compiles int64
	Entries  int
}

// CompileFunc produces the artifact for a cache miss.
type CompileFunc func(ctx context.Context) (*Artifact, error)

// ArtifactCache stores compiled artifacts content-addressed by
// (identity, target, fingerprint). Replacement is generational: storing a
// new fingerprint for an identity never evicts older generations, they
// simply stop being requested once the source has moved on. Invalidate
// drops an identity's generations explicitly, which is what the file
// watcher does in development.
//
// At most one compile per key is ever in flight; concurrent requesters for
// the same key share the first caller's result, including its error.
type ArtifactCache struct {
	mu      sync.RWMutex
	entries map[artifactKey]*Artifact
	group   singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	compiles atomic.Int64
}

// NewArtifactCache creates an empty artifact cache.
func NewArtifactCache() *ArtifactCache {
	return &ArtifactCache{entries: make(map[artifactKey]*Artifact)}
}

// Get returns the cached artifact for the key, if present.
func (c *ArtifactCache) Get(identity string, target Target, fingerprint string) (*Artifact, bool) {
	key := artifactKey{identity, target, fingerprint}
	c.mu.RLock()
	artifact, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return artifact, ok
}

// GetOrCompile returns the cached artifact for the key or runs compile to
// produce and store it. A hit never invokes the compiler. Compile errors
// are returned to every waiter of the in-flight call and nothing is stored,
// so the next request retries.
func (c *ArtifactCache) GetOrCompile(ctx context.Context, identity string, target Target, fingerprint string, compile CompileFunc) (*Artifact, error) {
	key := artifactKey{identity, target, fingerprint}

	c.mu.RLock()
	artifact, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return artifact, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// A racing caller may have stored the artifact while this one
		// waited on the flight group.
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		c.compiles.Add(1)
		built, err := compile(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = built
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

// Invalidate removes every generation of every target for an identity and
// returns how many entries were dropped.
func (c *ArtifactCache) Invalidate(identity string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key := range c.entries {
		if key.identity == identity {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Clear removes all entries.
func (c *ArtifactCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[artifactKey]*Artifact)
}

// Stats returns a snapshot of the cache counters.
func (c *ArtifactCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Compiles: c.compiles.Load(),
		Entries:  entries,
	}
}
