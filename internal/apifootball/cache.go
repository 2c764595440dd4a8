package apifootball

import (
	"encoding/json"
	"sync"
)

// responseCache memoizes successful GET responses for the lifetime of the
// process. Keys are path plus sorted query parameters, so identical requests
// within one run are never re-issued. There is no TTL: a run works against
// one consistent snapshot of the feed, and the cache dies with the process.
//
// A second concurrent caller for the same key waits for the first caller's
// result instead of issuing a duplicate request. Failed fetches are not
// cached, so a later caller may retry the same key.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	done chan struct{}
	body json.RawMessage
	err  error
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string]*cacheEntry)}
}

// do returns the cached body for key, or runs fetch exactly once per key and
// caches its successful result.
func (c *responseCache) do(key string, fetch func() (json.RawMessage, error)) (json.RawMessage, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-e.done
		return e.body, e.err
	}
	e := &cacheEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.body, e.err = fetch()
	close(e.done)

	if e.err != nil {
		c.mu.Lock()
		// Only drop the entry if it is still ours; a concurrent retry may
		// have replaced it already.
		if cur, ok := c.entries[key]; ok && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	return e.body, e.err
}

// len reports the number of cached responses (used in run summaries).
func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
