package fs

import (
	"sync"
	"time"

	"github.com/aretw0/shelter/pkg/core"
)

// cacheEntry holds a decoded table together with the file stamp it was
// decoded from.
type cacheEntry struct {
	Mode    core.Mode
	ModTime time.Time
	Size    int64
	Records []core.Record
}

// cache keeps decoded tables in memory so repeated queries skip the
// read-decrypt-decode cycle. Entries are valid only while the file's mtime
// and size are unchanged and the store reads in the same mode.
type cache struct {
	enabled bool
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

func newCache(enabled bool) *cache {
	return &cache{
		enabled: enabled,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns a private copy of the cached records when the entry is fresh.
func (c *cache) Get(table string, mode core.Mode, modTime time.Time, size int64) ([]core.Record, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[table]
	if !ok || entry.Mode != mode || entry.Size != size || !entry.ModTime.Equal(modTime) {
		return nil, false
	}
	return cloneRecords(entry.Records), true
}

// Set stores a private copy of recs.
func (c *cache) Set(table string, mode core.Mode, modTime time.Time, size int64, recs []core.Record) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[table] = &cacheEntry{
		Mode:    mode,
		ModTime: modTime,
		Size:    size,
		Records: cloneRecords(recs),
	}
}

// Delete drops a table's entry.
func (c *cache) Delete(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, table)
}

// Len returns the number of cached tables.
func (c *cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneRecords(recs []core.Record) []core.Record {
	out := make([]core.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
