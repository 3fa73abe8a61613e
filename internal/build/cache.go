// Package build implements the worker farm (C4) and build cache (C5):
// isolated goroutine workers that run an asset's process pipeline, and
// a two-tier cache (an in-memory LRU fronting a per-entry JSON file on
// disk) that lets a warm rebuild skip re-running a worker entirely.
//
// The worker-pool shape (context-cancellable goroutines drained by a
// WaitGroup) and the cache's LRU-with-TTL eviction policy are grounded
// on the teacher's WorkerManager/BuildCache; both are retargeted here
// from compiling templ components to running an asset.Variant pipeline
// and storing a types.ProcessedResult.
package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/conneroisu/bundler/internal/interfaces"
	"github.com/conneroisu/bundler/internal/types"
)

var _ interfaces.Cache = (*Cache)(nil)

// stamp is the on-disk (and in-memory) record backing one cache entry:
// the processed result plus the file metadata needed to validate it
// without reprocessing, per spec.md §4.4.
type stamp struct {
	ModTime     time.Time            `json:"mod_time"`
	Size        int64                `json:"size"`
	Fingerprint string               `json:"fingerprint"`
	Result      types.ProcessedResult `json:"result"`
}

// entry is one node of the in-memory LRU list.
type entry struct {
	path  string
	stamp stamp
	added time.Time // when this entry was stored in memory
	prev  *entry
	next  *entry
}

// Cache is the build cache (C5): a bounded in-memory LRU over a
// directory of one-file-per-asset JSON entries, so a cold process still
// benefits from a previous run's disk cache and a long-running watch
// session never re-reads disk for an asset it already validated.
type Cache struct {
	dir     string
	maxSize int
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used

	hits, misses, evictions int64
}

// NewCache builds a Cache rooted at dir (created if absent). maxSize
// bounds the in-memory LRU's entry count, not the on-disk footprint;
// ttl is the maximum age of an in-memory entry before it's treated as
// a miss and revalidated from disk.
func NewCache(dir string, maxSize int, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{
		dir:     dir,
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*entry),
	}, nil
}

// Read implements interfaces.Cache. Any I/O or validation failure is
// reported as a miss rather than an error, per spec.md §4.4 ("cache
// I/O errors never propagate").
func (c *Cache) Read(ctx context.Context, path, fingerprint string) (types.ProcessedResult, bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		c.recordMiss()
		return types.ProcessedResult{}, false, nil
	}

	if st, ok := c.readMemory(path); ok {
		if matches(st, fi, fingerprint) {
			c.recordHit()
			return st.Result, true, nil
		}
	}

	st, ok := c.readDisk(path)
	if !ok || !matches(st, fi, fingerprint) {
		c.recordMiss()
		return types.ProcessedResult{}, false, nil
	}

	c.writeMemory(path, st)
	c.recordHit()
	return st.Result, true, nil
}

// Write implements interfaces.Cache.
func (c *Cache) Write(ctx context.Context, path, fingerprint string, result types.ProcessedResult) error {
	fi, err := os.Stat(path)
	if err != nil {
		return nil
	}
	st := stamp{ModTime: fi.ModTime(), Size: fi.Size(), Fingerprint: fingerprint, Result: result}

	c.writeMemory(path, st)

	data, err := json.Marshal(st)
	if err != nil {
		return nil
	}
	_ = os.WriteFile(c.diskPath(path), data, 0o644)
	return nil
}

// Invalidate implements interfaces.Cache.
func (c *Cache) Invalidate(ctx context.Context, path string) error {
	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		c.unlink(e)
		delete(c.entries, path)
	}
	c.mu.Unlock()

	_ = os.Remove(c.diskPath(path))
	return nil
}

func matches(st stamp, fi os.FileInfo, fingerprint string) bool {
	return st.Fingerprint == fingerprint && st.Size == fi.Size() && st.ModTime.Equal(fi.ModTime())
}

func (c *Cache) diskPath(path string) string {
	return filepath.Join(c.dir, md5Hex(path)+".json")
}

func (c *Cache) readDisk(path string) (stamp, bool) {
	data, err := os.ReadFile(c.diskPath(path))
	if err != nil {
		return stamp{}, false
	}
	var st stamp
	if err := json.Unmarshal(data, &st); err != nil {
		return stamp{}, false
	}
	return st, true
}

func (c *Cache) readMemory(path string) (stamp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		return stamp{}, false
	}
	if c.ttl > 0 && time.Since(e.added) > c.ttl {
		return stamp{}, false
	}
	c.moveToFront(e)
	return e.stamp, true
}

func (c *Cache) writeMemory(path string, st stamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[path]; ok {
		e.stamp = st
		e.added = time.Now()
		c.moveToFront(e)
		return
	}

	e := &entry{path: path, stamp: st, added: time.Now()}
	c.entries[path] = e
	c.pushFront(e)

	if c.maxSize > 0 && len(c.entries) > c.maxSize {
		lru := c.tail
		if lru != nil {
			c.unlink(lru)
			delete(c.entries, lru.path)
			c.evictions++
		}
	}
}

func (c *Cache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *Cache) moveToFront(e *entry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

// GetSize implements interfaces.CacheStats.
func (c *Cache) GetSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.entries))
}

// GetHits implements interfaces.CacheStats.
func (c *Cache) GetHits() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// GetMisses implements interfaces.CacheStats.
func (c *Cache) GetMisses() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// GetHitRate implements interfaces.CacheStats.
func (c *Cache) GetHitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// GetEvictions implements interfaces.CacheStats.
func (c *Cache) GetEvictions() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// Clear implements interfaces.CacheStats.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
}
