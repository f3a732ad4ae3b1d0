package appsyncgen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/appsyncgen/compiler"
	"github.com/syssam/appsyncgen/compiler/load"
)

// Cache stores rendered artifacts by snapshot key.
// The compiler never consults a cache; the command line tool does.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// MemoryCache is a Cache held in process memory. It is safe for
// concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

var _ Cache = (*MemoryCache)(nil)

// Get implements Cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expires.Equal(e.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return bytes.Clone(e.value), nil
}

// Set implements Cache.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := memoryEntry{value: bytes.Clone(value)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SnapshotKey returns the cache key of compiling snap with the settings
// described by fingerprint (see gen.Config.Fingerprint). The snapshot is
// encoded with msgpack, map keys sorted, and hashed with SHA-256.
// Source positions are not part of the key.
func SnapshotKey(snap *load.Snapshot, fingerprint string) (string, error) {
	if snap == nil {
		return "", &CacheError{Op: "key", Err: errNilSnapshot}
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(snap); err != nil {
		return "", &CacheError{Op: "key", Err: err}
	}
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(fingerprint)))
	h.Write([]byte{0})
	h.Write(buf.Bytes())
	return hex.EncodeToString(h.Sum(nil)), nil
}

// EncodeArtifacts encodes a for storage in a Cache. The schema model is
// not stored.
func EncodeArtifacts(a *compiler.Artifacts) ([]byte, error) {
	if a == nil {
		return nil, &CacheError{Op: "encode", Err: errNilArtifacts}
	}
	b, err := msgpack.Marshal(a)
	if err != nil {
		return nil, &CacheError{Op: "encode", Err: err}
	}
	return b, nil
}

// DecodeArtifacts decodes artifacts stored by EncodeArtifacts.
func DecodeArtifacts(b []byte) (*compiler.Artifacts, error) {
	a := &compiler.Artifacts{}
	if err := msgpack.Unmarshal(b, a); err != nil {
		return nil, &CacheError{Op: "decode", Err: err}
	}
	return a, nil
}
