// cache.go — DistCache is the interface for the parsed-.dist-file cache.
// A root's distribution spec rarely changes, but every request that needs
// a sample would otherwise re-read and re-parse the file from disk. Two
// implementations are provided:
//
//   - memoryCache — in-memory only, used in tests and when no path is configured.
//   - bboltCache  — embedded key-value store (bbolt), used in production.
//
// Entries are keyed by an xxhash of the file's path and modification time,
// so an edited .dist file is reparsed automatically rather than serving a
// stale cached distribution.
package distribution

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	bolt "go.etcd.io/bbolt"
)

// DistCache is the cross-request parsed-distribution cache interface.
// All implementations must be safe for concurrent use.
type DistCache interface {
	// Get returns the cached distribution for key, if present.
	Get(key uint64) (*Dist, bool)

	// Set stores the distribution under key. Overwrites any existing entry.
	Set(key uint64, d *Dist)

	// Close releases any resources held by the cache (e.g. file handles).
	Close() error
}

// CacheKey hashes a file path and its modification time (Unix nanoseconds)
// into a cache key. Re-parsing is forced automatically when the file's
// mtime changes.
func CacheKey(path string, modTimeUnixNano int64) uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%s:%d", path, modTimeUnixNano)
	return h.Sum64()
}

// --- memoryCache ---------------------------------------------------------

type memoryCache struct {
	mu    sync.RWMutex
	store map[uint64]*Dist
}

// NewMemoryCache returns an in-memory DistCache with no eviction.
func NewMemoryCache() DistCache {
	return &memoryCache{store: make(map[uint64]*Dist)}
}

func (c *memoryCache) Get(key uint64) (*Dist, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *memoryCache) Set(key uint64, d *Dist) {
	c.mu.Lock()
	c.store[key] = d
	c.mu.Unlock()
}

func (c *memoryCache) Close() error { return nil }

// --- bboltCache ------------------------------------------------------------

const bboltBucket = "dist_cache"

// bboltCache is a DistCache backed by an embedded bbolt database. Entries
// survive process restarts. The database file is created at the given path
// if it does not exist.
type bboltCache struct {
	db *bolt.DB
}

// NewBboltCache opens (or creates) the bbolt database at path and ensures
// the bucket exists.
func NewBboltCache(path string) (DistCache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open dist cache %q: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bboltBucket))
		return err
	}); err != nil {
		db.Close() //nolint:errcheck // best-effort close on init failure
		return nil, fmt.Errorf("create dist cache bucket: %w", err)
	}

	log.Infof("cache_open", "dist cache opened at %s", path)
	return &bboltCache{db: db}, nil
}

func (c *bboltCache) Get(key uint64) (*Dist, bool) {
	var d *Dist
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return nil
		}
		v := b.Get(keyBytes(key))
		if v == nil {
			return nil
		}
		var decoded Dist
		if err := json.Unmarshal(v, &decoded); err != nil {
			return err
		}
		d = &decoded
		return nil
	})
	if err != nil {
		log.Errorf("cache_get", "bbolt get error: %v", err)
		return nil, false
	}
	return d, d != nil
}

func (c *bboltCache) Set(key uint64, d *Dist) {
	encoded, err := json.Marshal(d)
	if err != nil {
		log.Errorf("cache_set", "marshal error: %v", err)
		return
	}
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", bboltBucket)
		}
		return b.Put(keyBytes(key), encoded)
	}); err != nil {
		log.Errorf("cache_set", "bbolt set error: %v", err)
	}
}

func (c *bboltCache) Close() error {
	return c.db.Close()
}

func keyBytes(key uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, key)
	return b
}
